package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"health-companion/internal/domain"
)

// MissingValue stands in for a biomarker the report did not carry.
const MissingValue = "--"

const trendsTitle = "📊 Health Trends Analysis"

// Framing is the emotional tone a trend is presented with.
type Framing string

const (
	FramingPositive Framing = "positive"
	FramingNegative Framing = "negative"
	FramingNeutral  Framing = "neutral"
)

// CardValue is one labeled biomarker on a report card.
type CardValue struct {
	Label string
	Text  string
}

// ReportCard is the compact rendering of one ReportResult.
type ReportCard struct {
	Index      int
	Title      string
	Filename   string
	Level      domain.RiskLevel
	BadgeClass string
	Score      int
	ScoreText  string
	Values     []CardValue
}

// OverallTrendView is the headline trend of a batch.
type OverallTrendView struct {
	Direction  domain.Direction
	Framing    Framing
	Icon       string
	Color      string
	Heading    string
	Transition string
}

// TrendLine is one per-biomarker trend.
type TrendLine struct {
	Metric    string
	Label     string
	Unit      string
	Direction domain.Direction
	Class     string
	Text      string
}

// TrendSection is the full trend display. Lines only contains metrics the
// backend reported.
type TrendSection struct {
	Title   string
	Overall *OverallTrendView
	Lines   []TrendLine
}

type biomarkerFormat struct {
	cardLabel  string
	trendLabel string
	unit       string
}

var biomarkerFormats = map[string]biomarkerFormat{
	domain.Hemoglobin:  {cardLabel: "Hb", trendLabel: "Hemoglobin", unit: "g/dL"},
	domain.BloodSugar:  {cardLabel: "Sugar", trendLabel: "Blood Sugar", unit: "mg/dL"},
	domain.Cholesterol: {cardLabel: "Chol", trendLabel: "Cholesterol", unit: "mg/dL"},
}

type directionStyle struct {
	framing Framing
	icon    string
	color   string
}

var directionStyles = map[domain.Direction]directionStyle{
	domain.Improving: {framing: FramingPositive, icon: "📈", color: "#16a34a"},
	domain.Worsening: {framing: FramingNegative, icon: "📉", color: "#dc2626"},
	domain.Stable:    {framing: FramingNeutral, icon: "➡️", color: "#f59e0b"},
}

// styleFor falls back to the stable style for directions it does not know.
func styleFor(d domain.Direction) directionStyle {
	if s, ok := directionStyles[d]; ok {
		return s
	}
	return directionStyles[domain.Stable]
}

// BuildReportCards renders every report in submission order.
func BuildReportCards(reports []domain.ReportResult) []ReportCard {
	cards := make([]ReportCard, 0, len(reports))
	for i, r := range reports {
		a := r.Assessment
		values := make([]CardValue, 0, len(domain.TrackedBiomarkers))
		for _, name := range domain.TrackedBiomarkers {
			text := MissingValue
			if v, ok := a.Value(name); ok {
				text = formatNumber(v)
			}
			values = append(values, CardValue{Label: biomarkerFormats[name].cardLabel, Text: text})
		}
		cards = append(cards, ReportCard{
			Index:      i + 1,
			Title:      fmt.Sprintf("Report %d: %s", i+1, r.Filename),
			Filename:   r.Filename,
			Level:      a.Level,
			BadgeClass: "risk-" + a.Level.Slug(),
			Score:      a.Score,
			ScoreText:  fmt.Sprintf("%d/100", a.Score),
			Values:     values,
		})
	}
	return cards
}

// BuildTrendSection renders the overall trend and the tracked biomarker lines
// present in trends.
func BuildTrendSection(trends domain.Trends) TrendSection {
	section := TrendSection{Title: trendsTitle}

	if o := trends.Overall; o != nil {
		style := styleFor(o.Direction)
		section.Overall = &OverallTrendView{
			Direction: o.Direction,
			Framing:   style.framing,
			Icon:      style.icon,
			Color:     style.color,
			Heading:   fmt.Sprintf("%s Overall Health Trend: %s", style.icon, strings.ToUpper(string(o.Direction))),
			Transition: fmt.Sprintf("Risk Score: %s → %s (Change: %s)",
				formatNumber(o.FirstScore), formatNumber(o.LatestScore), signed(o.Change)),
		}
	}

	for _, name := range domain.TrackedBiomarkers {
		m, ok := trends.Metrics[name]
		if !ok {
			continue
		}
		f := biomarkerFormats[name]
		section.Lines = append(section.Lines, TrendLine{
			Metric:    name,
			Label:     f.trendLabel,
			Unit:      f.unit,
			Direction: m.Direction,
			Class:     "trend-" + string(m.Direction),
			Text: fmt.Sprintf("%s: %s → %s %s (%s)",
				f.trendLabel, formatNumber(m.First), formatNumber(m.Latest), f.unit, m.Direction),
		})
	}
	return section
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func signed(v float64) string {
	if v > 0 {
		return "+" + formatNumber(v)
	}
	return formatNumber(v)
}
