package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kadoya0703/kakeibo/internal/logger"
	"github.com/kadoya0703/kakeibo/internal/store"
)

// Summarizer is the slice of the tagging collaborator the monthly summary
// needs: one free-form generation call.
type Summarizer interface {
	Summarize(ctx context.Context, userPrompt string) (string, error)
}

// monthlySummary is the JSON shape the summary prompt instructs the model
// to return.
type monthlySummary struct {
	MonthlySummary         string `json:"monthly_summary"`
	MonthlyCharacteristics string `json:"monthly_characteristics"`
	PositivePoints         string `json:"positive_points"`
	AdviceForNextMonth     string `json:"advice_for_next_month"`
}

// GenerateMonthlySummary aggregates one period and its predecessor, asks
// the model for a narrative summary, and writes it to
// <summaryRoot>/<YYYY>/<YYYYMM>_summary.txt. A period with no ledger data
// yields "" without calling the model. Returns the rendered text.
func GenerateMonthlySummary(ctx context.Context, st *store.Store, p store.Period, ai Summarizer, summaryRoot string) (string, error) {
	log := logger.FromContext(ctx)

	current, err := Aggregate(st, p)
	if err != nil {
		return "", fmt.Errorf("aggregate %s: %w", p, err)
	}
	if len(current) == 0 {
		log.Info().Str("period", p.String()).Msg("no ledger data, skipping summary")
		return "", nil
	}

	prev := p.Previous()
	previous, err := Aggregate(st, prev)
	if err != nil {
		return "", fmt.Errorf("aggregate %s: %w", prev, err)
	}

	userPrompt := buildSummaryPrompt(p, current, prev, previous)
	log.Debug().Str("prompt", userPrompt).Msg("monthly summary prompt")

	reply, err := ai.Summarize(ctx, userPrompt)
	if err != nil {
		return "", fmt.Errorf("summary generation for %s: %w", p, err)
	}

	var parsed monthlySummary
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &parsed); err != nil {
		return "", fmt.Errorf("parse summary reply for %s: %w", p, err)
	}

	text := strings.Join([]string{
		"Monthly summary: " + parsed.MonthlySummary,
		"Characteristics: " + parsed.MonthlyCharacteristics,
		"Positive points: " + parsed.PositivePoints,
		"Advice for next month: " + parsed.AdviceForNextMonth,
	}, "\n")

	dir := filepath.Join(summaryRoot, fmt.Sprintf("%04d", p.Year))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create summary dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%04d%02d_summary.txt", p.Year, p.Month))
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write summary %s: %w", path, err)
	}

	log.Info().Str("path", path).Msg("monthly summary saved")
	return text, nil
}

// buildSummaryPrompt renders the English prompt body: the current month's
// per-category spend, then the five-case comparison with the previous
// month when there is anything to compare.
func buildSummaryPrompt(p store.Period, current Totals, prev store.Period, previous Totals) string {
	lines := []string{fmt.Sprintf("[This Month (%s)]", p)}
	lines = append(lines, CurrentMonthLines(p, current)...)

	if comparison := CompareLines(current, previous); len(comparison) > 0 {
		lines = append(lines, "", fmt.Sprintf("[Comparison with Previous Month (%s)]", prev))
		lines = append(lines, comparison...)
	}

	return strings.Join(lines, "\n")
}
