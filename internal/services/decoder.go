package services

import (
	"bytes"
	"context"
	"fmt"

	"insightreport/internal/config"
	"insightreport/internal/dataprocessing"
	"insightreport/internal/session"
	"insightreport/pkg/contracts/domain"
)

// BuildOptions maps the analytics configuration onto the report builder.
func BuildOptions(cfg config.AnalyticsConfig) dataprocessing.BuildOptions {
	return dataprocessing.BuildOptions{
		HeaderScanLimit: cfg.HeaderScanLimit,
		FilenameHints:   cfg.FilenameHints,
	}
}

// NewDecoder returns the session decoder: tokenize the upload, locate its
// header row and classify it.
func NewDecoder(opts dataprocessing.BuildOptions) session.Decoder {
	return func(ctx context.Context, name string, data []byte) (*domain.ClassifiedReport, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := dataprocessing.ParseFile(name, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return dataprocessing.BuildFromRows(name, rows, opts), nil
	}
}
