// Package gauge turns a risk score into a radial progress visual.
package gauge

import (
	"fmt"
	"math"
	"strings"

	"health-companion/internal/domain"
)

const (
	Radius      = 70.0
	Size        = 180.0
	StrokeWidth = 12.0
	TrackColor  = "#e5e7eb"
	LabelColor  = "#6b7280"
)

// Colors per risk level.
const (
	ColorLow      = "#16a34a"
	ColorModerate = "#f59e0b"
	ColorHigh     = "#dc2626"
)

// VisualSpec describes a fully drawn gauge. It is rebuilt on every Render call.
type VisualSpec struct {
	Score         int
	Color         string
	Radius        float64
	Circumference float64
	Filled        float64
	DashOffset    float64
	Label         string
}

// Render computes the arc for score. Scores outside 0–100 are drawn as given.
func Render(score int, color string) VisualSpec {
	c := 2 * math.Pi * Radius
	filled := float64(score) / 100 * c
	return VisualSpec{
		Score:         score,
		Color:         color,
		Radius:        Radius,
		Circumference: c,
		Filled:        filled,
		DashOffset:    c - filled,
		Label:         fmt.Sprintf("%d", score),
	}
}

// Fraction is the filled share of the circumference.
func (v VisualSpec) Fraction() float64 {
	if v.Circumference == 0 {
		return 0
	}
	return v.Filled / v.Circumference
}

// SVG renders the gauge markup.
func (v VisualSpec) SVG() string {
	center := Size / 2
	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%g" height="%g" class="gauge-svg">`, Size, Size)
	fmt.Fprintf(&b, `<circle cx="%g" cy="%g" r="%g" fill="none" stroke="%s" stroke-width="%g"></circle>`,
		center, center, v.Radius, TrackColor, StrokeWidth)
	fmt.Fprintf(&b, `<circle cx="%g" cy="%g" r="%g" fill="none" stroke="%s" stroke-width="%g" `+
		`stroke-dasharray="%g" stroke-dashoffset="%g" stroke-linecap="round" transform="rotate(-90 %g %g)"></circle>`,
		center, center, v.Radius, v.Color, StrokeWidth, v.Circumference, v.DashOffset, center, center)
	fmt.Fprintf(&b, `<text x="%g" y="%g" text-anchor="middle" font-size="36" font-weight="bold" fill="%s">%s</text>`,
		center, center-5, v.Color, v.Label)
	fmt.Fprintf(&b, `<text x="%g" y="%g" text-anchor="middle" font-size="14" fill="%s">/ 100</text>`,
		center, center+20, LabelColor)
	b.WriteString(`</svg>`)
	return b.String()
}

// Bar draws the gauge as a fixed-width text bar for terminals.
func (v VisualSpec) Bar(width int) string {
	if width <= 0 {
		return ""
	}
	n := int(math.Round(v.Fraction() * float64(width)))
	n = max(0, min(width, n))
	return "[" + strings.Repeat("█", n) + strings.Repeat("░", width-n) + "] " + v.Label + "/100"
}

// ColorFor maps a risk level to its gauge color.
func ColorFor(level domain.RiskLevel) string {
	switch level {
	case domain.RiskHigh:
		return ColorHigh
	case domain.RiskModerate:
		return ColorModerate
	default:
		return ColorLow
	}
}
