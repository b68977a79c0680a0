// Package fill orchestrates the single-record pipeline: fetch metadata and
// record from REDCap, normalize the record, and fill the PDF template.
package fill

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/redcap-tools/redcap-pdf-fill/internal/pdfform"
	"github.com/redcap-tools/redcap-pdf-fill/internal/record"
	"github.com/redcap-tools/redcap-pdf-fill/internal/redcap"
)

// Request describes one fill run.
type Request struct {
	RecordID        string
	IdentifierField string
	TemplatePath    string
	OutputPath      string
}

// Result reports what a fill run produced.
type Result struct {
	OutputPath     string
	TemplateFields []string
	NormalizeStats record.Stats
	FillResult     pdfform.FillResult
}

// Service runs the fill pipeline. It owns the REDCap client and the template
// validator; the PDF document is owned exclusively during a run, mutated in
// place, and serialized at the end.
type Service struct {
	client    *redcap.Client
	validator *pdfform.Validator
	log       zerolog.Logger
}

// NewService creates a fill service for one REDCap project.
func NewService(creds redcap.Credentials, maxFileSize int64, log zerolog.Logger) *Service {
	return &Service{
		client:    redcap.NewClient(creds),
		validator: pdfform.NewValidator(maxFileSize),
		log:       log,
	}
}

// Run executes the pipeline for a single record: template validation,
// metadata fetch, record fetch, normalization, fill, persist. Each stage
// failure is terminal; there are no retries.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if samePath(req.TemplatePath, req.OutputPath) {
		return nil, fmt.Errorf("template PDF and output PDF must be different: %s", req.TemplatePath)
	}
	if err := s.validator.ValidateTemplate(req.TemplatePath); err != nil {
		return nil, err
	}

	metadata, err := s.client.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("fields", len(metadata)).Msg("got project metadata")

	rawRecord, err := s.client.Record(ctx, req.IdentifierField, req.RecordID)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("record", req.RecordID).
		Str("identified_by", req.IdentifierField).
		Msg("got record")

	rec, stats, err := record.Normalize(rawRecord, metadata)
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Int("checkboxes", stats.CheckboxesConverted).
		Int("radios", stats.RadiosConverted).
		Int("bridge_keys", stats.BridgeKeysAdded).
		Int("collapsed_groups", stats.GroupsCollapsed).
		Msg("normalized record")

	doc, err := pdfform.Open(req.TemplatePath)
	if err != nil {
		return nil, err
	}

	fields, err := doc.Fields()
	if err != nil {
		return nil, err
	}
	s.log.Debug().Strs("template_fields", fields).Msg("discovered fillable fields")

	fillResult, err := doc.Fill(rec)
	if err != nil {
		return nil, err
	}
	if err := doc.Save(req.OutputPath); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("output", req.OutputPath).
		Int("text_widgets", fillResult.TextWidgets).
		Int("checkbox_widgets", fillResult.CheckboxWidgets).
		Int("radio_widgets", fillResult.RadioWidgets).
		Int("skipped_widgets", fillResult.SkippedWidgets).
		Msg("PDF written")

	return &Result{
		OutputPath:     req.OutputPath,
		TemplateFields: fields,
		NormalizeStats: stats,
		FillResult:     fillResult,
	}, nil
}

// ListFields returns the ordered fillable field names of a template.
func (s *Service) ListFields(path string) ([]string, error) {
	if err := s.validator.ValidateTemplate(path); err != nil {
		return nil, err
	}
	doc, err := pdfform.Open(path)
	if err != nil {
		return nil, err
	}
	return doc.Fields()
}

// PreviewRecord fetches and normalizes a record without touching any PDF,
// used to inspect what a fill run would write.
func (s *Service) PreviewRecord(ctx context.Context, identifierField, recordID string) (record.Record, error) {
	metadata, err := s.client.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	rawRecord, err := s.client.Record(ctx, identifierField, recordID)
	if err != nil {
		return nil, err
	}
	rec, _, err := record.Normalize(rawRecord, metadata)
	return rec, err
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
