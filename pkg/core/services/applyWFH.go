package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/internal/config"
	"github.com/jakechorley/wfh-portal/pkg/core/dateset"
	"github.com/jakechorley/wfh-portal/pkg/core/form"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// ApplyWFHArgs are the non-interactive inputs of a WFH application
type ApplyWFHArgs struct {
	Type   model.WFHType
	Reason string
	// Dates are toggled in order, so a repeated date deselects it
	Dates []string
	// Pattern names a configured date pattern; RRule is an inline rule. Both start from PatternStart.
	Pattern      string
	RRule        string
	PatternStart time.Time
	Files        []string
}

// ApplyWFHResult reports what was sent and how the service answered
type ApplyWFHResult struct {
	Draft  model.Draft
	Status form.Status
}

// ApplyWFH fills a form from args and submits it once.
// Validation failures are returned as *form.ValidationError; transport failures and
// rejections are reported through the result status.
func ApplyWFH(ctx context.Context, f *form.Form, cfg *config.Config, logger *zap.Logger, args ApplyWFHArgs) (*ApplyWFHResult, error) {
	logger.Debug("Applying for WFH",
		zap.String("type", string(args.Type)),
		zap.Strings("dates", args.Dates),
		zap.String("pattern", args.Pattern),
		zap.Int("files", len(args.Files)))

	if err := FillForm(f, cfg, args); err != nil {
		return nil, err
	}

	status, err := f.Submit(ctx)
	if err != nil {
		return nil, err
	}

	return &ApplyWFHResult{Draft: f.Draft(), Status: status}, nil
}

// FillForm applies args to f without submitting
func FillForm(f *form.Form, cfg *config.Config, args ApplyWFHArgs) error {
	f.SetType(args.Type)
	f.SetReason(args.Reason)

	for _, d := range args.Dates {
		day, err := dateset.ParseDay(d)
		if err != nil {
			return err
		}
		f.ToggleDate(day)
	}

	rule, err := resolveRule(cfg, args.Pattern, args.RRule)
	if err != nil {
		return err
	}
	if rule != "" {
		start := args.PatternStart
		if start.IsZero() {
			start = time.Now()
		}
		if _, err := f.AddRecurrence(rule, start); err != nil {
			return fmt.Errorf("failed to apply date pattern: %w", err)
		}
	}

	for _, path := range args.Files {
		f.Attach(model.AttachmentFromPath(path))
	}

	return nil
}

// resolveRule picks the recurrence to apply, if any
func resolveRule(cfg *config.Config, pattern, rule string) (string, error) {
	if pattern != "" && rule != "" {
		return "", fmt.Errorf("use either a named pattern or an rrule, not both")
	}
	if pattern == "" {
		return rule, nil
	}

	p, ok := cfg.Pattern(pattern)
	if !ok {
		return "", fmt.Errorf("unknown date pattern %q", pattern)
	}
	return p.RRule, nil
}
