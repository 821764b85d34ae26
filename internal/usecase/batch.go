package usecase

import (
	"context"
	"errors"
	"log/slog"

	"health-companion/internal/domain"
	"health-companion/internal/gauge"
)

// EmptySelectionMessage prompts the user when no file was selected.
const EmptySelectionMessage = "Please select at least one file"

type BatchAnalyzer interface {
	AnalyzeReports(ctx context.Context, files []domain.ReportFile) (domain.Batch, error)
}

// ReportView is the multi-report region of the UI.
type ReportView interface {
	Notify(message string)
	SetUploadVisible(visible bool)
	SetLoading(loading bool)
	RenderReports(cards []ReportCard)
	RenderTrends(section TrendSection)
	RenderGauge(spec gauge.VisualSpec)
}

type BatchEvaluator interface {
	EvaluateBatch(ctx context.Context, batch domain.Batch) bool
}

// Aggregator submits report batches and renders the results.
type Aggregator struct {
	analyzer  BatchAnalyzer
	view      ReportView
	evaluator BatchEvaluator
}

func NewAggregator(analyzer BatchAnalyzer, view ReportView, evaluator BatchEvaluator) (*Aggregator, error) {
	if analyzer == nil {
		return nil, errors.New("usecase: batch analyzer must not be nil")
	}
	if view == nil {
		return nil, errors.New("usecase: report view must not be nil")
	}
	if evaluator == nil {
		return nil, errors.New("usecase: evaluator must not be nil")
	}
	return &Aggregator{analyzer: analyzer, view: view, evaluator: evaluator}, nil
}

// SubmitBatch uploads files in one round trip. On success it renders cards,
// trends and the gauge, then evaluates the whole batch once. On failure the
// upload control comes back and exactly one error message is shown.
func (a *Aggregator) SubmitBatch(ctx context.Context, files []domain.ReportFile) (domain.Batch, error) {
	if len(files) == 0 {
		a.view.Notify(EmptySelectionMessage)
		return domain.Batch{}, newError(ErrorInvalidInput, "empty_selection", nil)
	}

	a.view.SetUploadVisible(false)
	a.view.SetLoading(true)

	batch, err := a.analyzer.AnalyzeReports(ctx, files)
	a.view.SetLoading(false)
	if err != nil {
		a.view.Notify(batchFailureMessage(err))
		a.view.SetUploadVisible(true)
		slog.Warn("report batch failed", "files", len(files), "err", err)
		return domain.Batch{}, roundTripError("batch_round_trip", err)
	}

	a.view.RenderReports(BuildReportCards(batch.Reports))
	if batch.Trends != nil {
		a.view.RenderTrends(BuildTrendSection(*batch.Trends))
	}
	if latest, ok := batch.Latest(); ok {
		a.view.RenderGauge(gauge.Render(latest.Assessment.Score, gauge.ColorFor(latest.Assessment.Level)))
	}
	a.evaluator.EvaluateBatch(ctx, batch)
	return batch, nil
}

func batchFailureMessage(err error) string {
	if msg, ok := remoteMessage(err); ok {
		return "Error: " + msg
	}
	return "Error analyzing reports: " + err.Error()
}
