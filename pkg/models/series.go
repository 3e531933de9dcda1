package models

import "time"

// Point is a single monthly observation after parsing.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// SeriesPoint is a raw observation as stored in the JSON data files.
type SeriesPoint struct {
	Date  string  `json:"date"` // YYYY-MM
	Value float64 `json:"value"`
}

// CategorySeries is one named monthly series.
type CategorySeries struct {
	Category string        `json:"category"`
	Data     []SeriesPoint `json:"data"`
}

// MultiSeries is the shape of inflation_multi_series.json.
type MultiSeries struct {
	Series []CategorySeries `json:"series"`
}

// Find returns the series with the given category, or nil.
func (m *MultiSeries) Find(category string) *CategorySeries {
	for i := range m.Series {
		if m.Series[i].Category == category {
			return &m.Series[i]
		}
	}
	return nil
}

// DateRange is an inclusive month range in YYYY-MM form.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Subcategories is the shape of all_subcategories.json.
type Subcategories struct {
	Series    []CategorySeries `json:"series"`
	DateRange *DateRange       `json:"date_range,omitempty"`
}

// BasketWeights is the shape of basket_weights.json. Weights are percent
// shares of the CPI basket keyed by Statistics Canada product names.
type BasketWeights struct {
	ReferencePeriod string             `json:"reference_period,omitempty"`
	AllWeightsPct   map[string]float64 `json:"all_weights_pct"`
}
