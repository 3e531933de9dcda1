package api

import (
	"net/http"
	"net/url"

	"github.com/canviz/canadaindata/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config     config.Config `json:"config"`
	ConfigFile string        `json:"config_file,omitempty"` // path to the active config file
}

// handleGetConfig returns the running configuration. Credentials in the
// data base URL are redacted.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:     redact(*s.cfg),
			ConfigFile: s.configFile,
		},
	})
}

func redact(cfg config.Config) config.Config {
	if u, err := url.Parse(cfg.Data.BaseURL); err == nil && u.User != nil {
		u.User = url.User("redacted")
		cfg.Data.BaseURL = u.String()
	}
	cfg.API.CORSOrigins = append([]string(nil), cfg.API.CORSOrigins...)
	return cfg
}
