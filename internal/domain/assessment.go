package domain

import "strings"

// RiskLevel is the categorical risk produced by the remote collaborator.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// Biomarker names tracked on report cards and trend lines.
const (
	Hemoglobin  = "hemoglobin"
	BloodSugar  = "blood_sugar"
	Cholesterol = "cholesterol"
)

// TrackedBiomarkers lists the biomarkers in display order.
var TrackedBiomarkers = []string{Hemoglobin, BloodSugar, Cholesterol}

// RiskAssessment is the structured risk output for one report. Level and Score
// are produced together remotely and never mutated client-side.
type RiskAssessment struct {
	Level  RiskLevel
	Score  int
	Values map[string]*float64
}

// Value returns the named biomarker value and whether it is present.
func (a RiskAssessment) Value(name string) (float64, bool) {
	v, ok := a.Values[name]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Slug is the lower-cased level used for badge class names.
func (l RiskLevel) Slug() string {
	return strings.ToLower(string(l))
}

// ReportResult pairs an uploaded file with its assessment.
type ReportResult struct {
	Filename   string
	Assessment RiskAssessment
}

// ReportFile is one selected upload.
type ReportFile struct {
	Name    string
	Content []byte
}
