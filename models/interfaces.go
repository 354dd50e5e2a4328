package models

import "context"

// Completer sends a prompt to a language model and returns its text.
type Completer interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

// ReportCache stores generated reports between requests.
type ReportCache interface {
	Get(ctx context.Context, key string) (*ScoutReport, bool, error)
	Set(ctx context.Context, key string, report *ScoutReport) error
}

// ReportHistory records every report that was served.
type ReportHistory interface {
	SaveReport(ctx context.Context, report *ScoutReport) error
}
