package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Out: &buf}
	r.Start(2)
	r.Update(1, "index.html")
	r.Update(2, "topics/index.html")
	r.Finish()

	assert.Equal(t, "Exporting 2 files\n[1/2] index.html\n[2/2] topics/index.html\nExport complete\n", buf.String())
}

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	_, ok := NewReporter().(*CIReporter)
	assert.True(t, ok)
}

func TestNewReporterInTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	_, ok := NewReporter().(*TerminalReporter)
	assert.True(t, ok)
}

func TestTerminalReporterWritesToOut(t *testing.T) {
	var buf bytes.Buffer
	r := &TerminalReporter{Out: &buf}
	r.Start(3)
	r.Update(1, "step")
	r.Finish()
	assert.NotEmpty(t, buf.String())
}

func TestTerminalReporterWithoutStart(t *testing.T) {
	r := &TerminalReporter{}
	r.Update(1, "ignored")
	r.Finish()
}
