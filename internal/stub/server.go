// Package stub is a local stand-in for the remote health assistant. It serves
// canned chat replies and turns JSON report fixtures into batch analyses so
// the client can be exercised without the real backend.
package stub

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"health-companion/internal/domain"
)

const (
	EmergencyReply = "This may be an emergency. Please seek medical attention immediately."
	GreetingReply  = "Hello! Ask me about your health or upload your reports for analysis."
	DefaultReply   = "I can help you understand your medical reports. Upload them with the analyze command for a full risk assessment."

	emergencyScore = 92
	maxFixtureSize = 1 << 20
)

var emergencyKeywords = []string{"chest pain", "can't breathe", "cannot breathe", "unconscious"}

// higherIsBetter lists biomarkers where a rising value is an improvement.
var higherIsBetter = map[string]bool{
	domain.Hemoglobin: true,
}

type Server struct{}

func NewServer() *Server {
	return &Server{}
}

func (s *Server) Routes() http.Handler {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.GET("/healthz", s.handleHealthz)
	engine.POST("/chatbot", s.handleChat)
	engine.POST("/analyze-multiple", s.handleAnalyzeMultiple)
	return engine
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	msg := strings.ToLower(strings.TrimSpace(req.Message))
	if msg == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}

	for _, kw := range emergencyKeywords {
		if strings.Contains(msg, kw) {
			c.JSON(http.StatusOK, gin.H{
				"response":   EmergencyReply,
				"risk_level": string(domain.RiskHigh),
				"risk_score": emergencyScore,
			})
			return
		}
	}
	if strings.HasPrefix(msg, "hi") || strings.HasPrefix(msg, "hello") {
		c.JSON(http.StatusOK, gin.H{"response": GreetingReply})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": DefaultReply})
}

// fixture is the JSON body each uploaded file must contain.
type fixture struct {
	RiskLevel string              `json:"risk_level"`
	RiskScore *int                `json:"risk_score"`
	Values    map[string]*float64 `json:"values"`
}

type reportResult struct {
	Filename  string              `json:"filename"`
	RiskLevel string              `json:"risk_level"`
	RiskScore int                 `json:"risk_score"`
	Values    map[string]*float64 `json:"values"`
}

func (s *Server) handleAnalyzeMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	reports := make([]reportResult, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("could not open %s", fh.Filename)})
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, maxFixtureSize))
		_ = f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("could not read %s", fh.Filename)})
			return
		}
		r, err := parseFixture(fh.Filename, data)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		reports = append(reports, r)
	}

	body := gin.H{"reports": reports}
	if trends := compareReports(reports); trends != nil {
		body["trends"] = trends
	}
	c.JSON(http.StatusOK, body)
}

func parseFixture(filename string, data []byte) (reportResult, error) {
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return reportResult{}, fmt.Errorf("%s is not a readable report", filename)
	}
	if fx.RiskScore == nil || *fx.RiskScore < 0 || *fx.RiskScore > 100 {
		return reportResult{}, fmt.Errorf("%s has no valid risk score", filename)
	}
	level := fx.RiskLevel
	if level == "" {
		level = string(levelFor(*fx.RiskScore))
	}
	values := make(map[string]*float64, len(domain.TrackedBiomarkers))
	for _, name := range domain.TrackedBiomarkers {
		values[name] = fx.Values[name]
	}
	return reportResult{Filename: filename, RiskLevel: level, RiskScore: *fx.RiskScore, Values: values}, nil
}

func levelFor(score int) domain.RiskLevel {
	switch {
	case score >= 70:
		return domain.RiskHigh
	case score >= 40:
		return domain.RiskModerate
	default:
		return domain.RiskLow
	}
}

// compareReports builds trends between the first and the latest report. It
// returns nil for a single report.
func compareReports(reports []reportResult) gin.H {
	if len(reports) < 2 {
		return nil
	}
	first, latest := reports[0], reports[len(reports)-1]
	change := latest.RiskScore - first.RiskScore

	trends := gin.H{
		"overall": gin.H{
			"direction":    scoreDirection(change),
			"first_score":  first.RiskScore,
			"latest_score": latest.RiskScore,
			"change":       change,
		},
	}
	for _, name := range domain.TrackedBiomarkers {
		a, b := first.Values[name], latest.Values[name]
		if a == nil || b == nil {
			continue
		}
		trends[name] = gin.H{
			"first":     *a,
			"latest":    *b,
			"direction": valueDirection(name, *b-*a),
		}
	}
	return trends
}

func scoreDirection(change int) domain.Direction {
	switch {
	case change < 0:
		return domain.Improving
	case change > 0:
		return domain.Worsening
	default:
		return domain.Stable
	}
}

func valueDirection(name string, delta float64) domain.Direction {
	if delta == 0 {
		return domain.Stable
	}
	if (delta > 0) == higherIsBetter[name] {
		return domain.Improving
	}
	return domain.Worsening
}
