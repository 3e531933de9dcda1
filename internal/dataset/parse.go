package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/canviz/canadaindata/pkg/models"
	"github.com/canviz/canadaindata/pkg/utils"
)

// CSV header aliases, in lookup order.
var (
	monthColumns = []string{"month", "Month"}
	valueColumns = []string{"index", "Index", "value", "Value"}
)

// ParseCPI reads a monthly index CSV. Rows whose month is not YYYY-MM or
// whose value is empty or not a finite number are dropped; the rest are
// returned sorted by date. A file without the expected columns yields no
// points rather than an error.
func ParseCPI(r io.Reader) ([]models.Point, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	monthIdx := columnIndex(header, monthColumns)
	valueIdx := columnIndex(header, valueColumns)

	var points []models.Point
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if monthIdx < 0 || valueIdx < 0 || monthIdx >= len(rec) || valueIdx >= len(rec) {
			continue
		}

		date, err := utils.ParseMonth(strings.TrimSpace(rec[monthIdx]))
		if err != nil {
			continue
		}
		raw := strings.TrimSpace(rec[valueIdx])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		points = append(points, models.Point{Date: date, Value: v})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}

// columnIndex returns the index of the first alias present in header.
func columnIndex(header, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range header {
			if strings.TrimSpace(h) == alias {
				return i
			}
		}
	}
	return -1
}

// DecodeJSON decodes a JSON resource into T.
func DecodeJSON[T any](r io.Reader) (*T, error) {
	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}
