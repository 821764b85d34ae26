package domain

// Direction is the first-to-latest movement of a metric.
type Direction string

const (
	Improving Direction = "improving"
	Worsening Direction = "worsening"
	Stable    Direction = "stable"
)

// TrendMetric compares the first and latest value of one biomarker.
type TrendMetric struct {
	First     float64
	Latest    float64
	Direction Direction
}

// OverallTrend compares the first and latest risk score of a batch.
type OverallTrend struct {
	Direction   Direction
	FirstScore  float64
	LatestScore float64
	Change      float64
}

// Trends holds the optional trend analysis of a batch. Metrics only contains
// biomarkers the collaborator actually reported.
type Trends struct {
	Overall *OverallTrend
	Metrics map[string]TrendMetric
}

// Batch is the result of one multi-report submission.
type Batch struct {
	Reports []ReportResult
	Trends  *Trends
}

// Assessments returns the assessments in submission order.
func (b Batch) Assessments() []RiskAssessment {
	out := make([]RiskAssessment, 0, len(b.Reports))
	for _, r := range b.Reports {
		out = append(out, r.Assessment)
	}
	return out
}

// Latest returns the last report of the batch.
func (b Batch) Latest() (ReportResult, bool) {
	if len(b.Reports) == 0 {
		return ReportResult{}, false
	}
	return b.Reports[len(b.Reports)-1], true
}
