// Package alert decides when a risk result is an emergency and owns the
// single emergency overlay.
package alert

import "health-companion/internal/domain"

// CriticalScore is the inclusive score at which an assessment is critical.
const CriticalScore = 80

// IsCritical reports whether a meets the emergency threshold. Level and score
// are independent triggers.
func IsCritical(a domain.RiskAssessment) bool {
	return a.Level == domain.RiskHigh || a.Score >= CriticalScore
}

// BatchEscalation reports whether any assessment is critical and, if so, the
// score the alert carries: the maximum over the whole batch, critical or not.
func BatchEscalation(as []domain.RiskAssessment) (score int, fire bool) {
	for _, a := range as {
		if IsCritical(a) {
			fire = true
			break
		}
	}
	if !fire {
		return 0, false
	}
	score = as[0].Score
	for _, a := range as[1:] {
		score = max(score, a.Score)
	}
	return score, true
}
