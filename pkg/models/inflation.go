package models

// HierarchyNode is one category in the CPI contribution tree. Percentage
// change and contribution are nil when the category has no usable series
// values for the selected period.
type HierarchyNode struct {
	Name             string           `json:"name"`
	Weight           float64          `json:"weight"` // basket share, 0..1
	PercentageChange *float64         `json:"percentageChange"`
	Contribution     *float64         `json:"contribution"` // percentage points
	Children         []*HierarchyNode `json:"children,omitempty"`
}

// ContributionValue returns the contribution, treating nil as zero.
func (n *HierarchyNode) ContributionValue() float64 {
	if n.Contribution == nil {
		return 0
	}
	return *n.Contribution
}

// ContributionResult is the full contribution breakdown for one period.
type ContributionResult struct {
	StartDate             string           `json:"startDate"`
	EndDate               string           `json:"endDate"`
	TotalOverallInflation float64          `json:"totalOverallInflation"`
	TotalContribution     float64          `json:"totalContribution"`
	Contributions         []*HierarchyNode `json:"contributions"`
}
