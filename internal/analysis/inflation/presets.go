package inflation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/canviz/canadaindata/pkg/models"
	"github.com/canviz/canadaindata/pkg/utils"
)

// Preset is a named time window for the contribution chart.
type Preset struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Presets lists the windows offered on the page, in button order.
var Presets = []Preset{
	{Key: "1y", Label: "1 Year"},
	{Key: "2y", Label: "2 Years"},
	{Key: "5y", Label: "5 Years"},
	{Key: "all", Label: "All Time"},
	{Key: "covid", Label: "COVID Era"},
	{Key: "ytd", Label: "YTD"},
}

// DefaultPreset is selected when the page first loads.
const DefaultPreset = "all"

// COVID window, fixed regardless of data range.
const (
	covidStart = "2020-03"
	covidEnd   = "2022-12"
)

// ResolvePreset turns a preset key into a clamped range inside data.
// Unknown keys start at the beginning of the data.
func ResolvePreset(key string, data models.DateRange) models.DateRange {
	end := data.End
	endYear, endMonth := splitMonth(data.End)
	var start string

	switch key {
	case "1y":
		start = fmt.Sprintf("%d-%02d", endYear-1, endMonth)
	case "2y":
		start = fmt.Sprintf("%d-%02d", endYear-2, endMonth)
	case "5y":
		start = fmt.Sprintf("%d-%02d", endYear-5, endMonth)
	case "all":
		start = data.Start
	case "covid":
		start, end = covidStart, covidEnd
	case "ytd":
		start = fmt.Sprintf("%d-01", endYear)
	default:
		start = data.Start
	}
	return ClampRange(start, end, data)
}

// ClampRange keeps start and end inside data and moves end up to start
// when the two are reversed. Months compare lexically in YYYY-MM form.
func ClampRange(start, end string, data models.DateRange) models.DateRange {
	if start == "" || start < data.Start {
		start = data.Start
	}
	if end == "" || end > data.End {
		end = data.End
	}
	if start > end {
		end = start
	}
	return models.DateRange{Start: start, End: end}
}

// ValidMonth reports whether s is a well-formed YYYY-MM month.
func ValidMonth(s string) bool {
	_, err := utils.ParseMonth(s)
	return err == nil
}

// PeriodLabel formats a range as "Jan 2015 → Nov 2025".
func PeriodLabel(r models.DateRange) string {
	return utils.MonthLabel(r.Start) + " → " + utils.MonthLabel(r.End)
}

// RangeLabel formats a range with long month names on both ends.
func RangeLabel(r models.DateRange) string {
	s, err1 := utils.ParseMonth(r.Start)
	e, err2 := utils.ParseMonth(r.End)
	if err1 != nil || err2 != nil {
		return r.Start + " — " + r.End
	}
	return utils.LongMonth(s) + " — " + utils.LongMonth(e)
}

// DurationLabel formats the span as "(10 years, 10 months)".
func DurationLabel(r models.DateRange) string {
	return "(" + utils.DurationLabel(r.Start, r.End) + ")"
}

func splitMonth(s string) (year, month int) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	year, _ = strconv.Atoi(parts[0])
	month, _ = strconv.Atoi(parts[1])
	return year, month
}
