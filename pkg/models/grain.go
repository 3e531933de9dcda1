package models

// Crop component measures, in panel order.
const (
	MeasureYield      = "Effective yield (t/ha seeded)"
	MeasureArea       = "Seeded area (hectares)"
	MeasureProduction = "Production (tonnes)"
)

// Decomposition components, in chaining order.
const (
	ComponentArea   = "Seeded Area"
	ComponentWithin = "Within-Crop Effective Yield"
	ComponentMix    = "Crop Mix"
)

// Measures lists the crop component measures in panel order.
var Measures = []string{MeasureYield, MeasureArea, MeasureProduction}

// Components lists the decomposition components in chaining order.
var Components = []string{ComponentArea, ComponentWithin, ComponentMix}

// YearValue is one annual observation.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// GrainSeries is the shape of grain_production_by_year.json and
// grain_area_by_year.json.
type GrainSeries struct {
	Data        []YearValue `json:"data"`
	XAxisBreaks []int       `json:"xAxisBreaks"`
}

// CropComponent is one crop/measure/year observation.
type CropComponent struct {
	Year    int     `json:"year"`
	Crop    string  `json:"crop"`
	Measure string  `json:"measure"`
	Value   float64 `json:"value"`
}

// CropComponents is the shape of grain_crop_components.json.
type CropComponents struct {
	Crops          []string          `json:"crops"`
	Data           []CropComponent   `json:"data"`
	XAxisBreaks    []int             `json:"xAxisBreaks"`
	MeasureColours map[string]string `json:"measureColours"`
}

// LogChange is the year-over-year shift-share decomposition for one year.
type LogChange struct {
	Year        int     `json:"year"`
	DeltaLnP    float64 `json:"deltaLnP"`
	DeltaLnA    float64 `json:"deltaLnA"`
	DeltaLnYBar float64 `json:"deltaLnYBar"`
	Within      float64 `json:"withinEffectiveYield"`
	Mix         float64 `json:"cropMix"`
}

// CumulativeBar is one component bar in the cumulative decomposition chart.
type CumulativeBar struct {
	Year            int     `json:"year"`
	Component       string  `json:"component"`
	Value           float64 `json:"value"`
	CumulativeStart float64 `json:"cumulativeStart"`
	CumulativeEnd   float64 `json:"cumulativeEnd"`
	XPosition       float64 `json:"xPosition"`
}

// ConnectingSegment joins the end of one year's chain to the next year.
type ConnectingSegment struct {
	Year    int     `json:"year"`
	YearEnd int     `json:"yearEnd"`
	YValue  float64 `json:"yValue"`
}

// ComponentConnector joins consecutive components within one year.
type ComponentConnector struct {
	Year   int     `json:"year"`
	XStart float64 `json:"xStart"`
	XEnd   float64 `json:"xEnd"`
	YValue float64 `json:"yValue"`
}

// Decomposition is the shape of grain_decomposition.json.
type Decomposition struct {
	CumulativeData      []CumulativeBar      `json:"cumulativeData"`
	ConnectingSegments  []ConnectingSegment  `json:"connectingSegments"`
	ComponentConnectors []ComponentConnector `json:"componentConnectors"`
	XAxisBreaks         []int                `json:"xAxisBreaks"`
	Colours             map[string]string    `json:"colours"`
	UniqueYears         []int                `json:"uniqueYears"`
}

// GrainStatistics holds the figures quoted in the grain narrative.
type GrainStatistics struct {
	FirstYear                     int     `json:"firstYear"`
	LastYear                      int     `json:"lastYear"`
	Production2025MillionTonnes   float64 `json:"production2025MillionTonnes"`
	ProductionRatio               float64 `json:"productionRatio"`
	AreaFirstYear                 int     `json:"areaFirstYear"`
	AreaLastYear                  int     `json:"areaLastYear"`
	AreaMultiplier                string  `json:"areaMultiplier"`
	CumulativeLogChangeProduction float64 `json:"cumulativeLogChangeProduction"`
	CumulativeArea                float64 `json:"cumulativeArea"`
	CumulativeWithin              float64 `json:"cumulativeWithin"`
	CumulativeMix                 float64 `json:"cumulativeMix"`
	ProductionMultiplier          float64 `json:"productionMultiplier"`
	WithinExceeds15Pre1960        int     `json:"withinExceeds15Pre1960"`
	WithinExceeds15Post1960       int     `json:"withinExceeds15Post1960"`
}
