package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"

	"health-companion/internal/domain"
)

// chatRequest is the request body of POST /chatbot.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse is the response body of POST /chatbot. risk_level and
// risk_score are optional and only used when both are present.
type chatResponse struct {
	Response  string `json:"response"`
	Error     string `json:"error"`
	RiskLevel string `json:"risk_level"`
	RiskScore *int   `json:"risk_score"`
}

// errorResponse is the remote error shape shared by both endpoints.
type errorResponse struct {
	Error string `json:"error"`
}

type reportPayload struct {
	Filename  string              `json:"filename"`
	RiskLevel string              `json:"risk_level"`
	RiskScore int                 `json:"risk_score"`
	Values    map[string]*float64 `json:"values"`
}

type overallPayload struct {
	Direction   string  `json:"direction"`
	FirstScore  float64 `json:"first_score"`
	LatestScore float64 `json:"latest_score"`
	Change      float64 `json:"change"`
}

type metricPayload struct {
	First     float64 `json:"first"`
	Latest    float64 `json:"latest"`
	Direction string  `json:"direction"`
}

// analyzeResponse is the response body of POST /analyze-multiple. Trends is
// kept raw because it mixes the overall entry with one entry per metric.
type analyzeResponse struct {
	Reports []reportPayload            `json:"reports"`
	Trends  map[string]json.RawMessage `json:"trends"`
	Error   string                     `json:"error"`
}

const overallKey = "overall"

func (r chatResponse) toReply() (domain.BotReply, error) {
	if r.Response == "" {
		return domain.BotReply{}, errors.New("analyzer: empty chat response")
	}
	reply := domain.BotReply{Text: r.Response}
	if r.RiskLevel != "" && r.RiskScore != nil {
		reply.Assessment = &domain.RiskAssessment{
			Level: domain.RiskLevel(r.RiskLevel),
			Score: *r.RiskScore,
		}
	}
	return reply, nil
}

func (r analyzeResponse) toBatch() (domain.Batch, error) {
	if len(r.Reports) == 0 {
		return domain.Batch{}, errors.New("analyzer: no reports in response")
	}
	batch := domain.Batch{Reports: make([]domain.ReportResult, 0, len(r.Reports))}
	for _, p := range r.Reports {
		values := p.Values
		if values == nil {
			values = map[string]*float64{}
		}
		batch.Reports = append(batch.Reports, domain.ReportResult{
			Filename: p.Filename,
			Assessment: domain.RiskAssessment{
				Level:  domain.RiskLevel(p.RiskLevel),
				Score:  p.RiskScore,
				Values: values,
			},
		})
	}

	if r.Trends == nil {
		return batch, nil
	}
	trends := &domain.Trends{Metrics: map[string]domain.TrendMetric{}}
	for name, raw := range r.Trends {
		if isNull(raw) {
			continue
		}
		if name == overallKey {
			var o overallPayload
			if err := json.Unmarshal(raw, &o); err != nil {
				return domain.Batch{}, fmt.Errorf("analyzer: decode overall trend: %w", err)
			}
			trends.Overall = &domain.OverallTrend{
				Direction:   domain.Direction(o.Direction),
				FirstScore:  o.FirstScore,
				LatestScore: o.LatestScore,
				Change:      o.Change,
			}
			continue
		}
		var m metricPayload
		if err := json.Unmarshal(raw, &m); err != nil {
			if !isTracked(name) {
				// unknown extras are ignored
				continue
			}
			return domain.Batch{}, fmt.Errorf("analyzer: decode %s trend: %w", name, err)
		}
		trends.Metrics[name] = domain.TrendMetric{
			First:     m.First,
			Latest:    m.Latest,
			Direction: domain.Direction(m.Direction),
		}
	}
	batch.Trends = trends
	return batch, nil
}

func isTracked(name string) bool {
	for _, b := range domain.TrackedBiomarkers {
		if b == name {
			return true
		}
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
