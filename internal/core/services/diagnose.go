package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/core/ports/driven"
	"github.com/arclight-labs/kbctl/internal/core/ports/driving"
	"github.com/arclight-labs/kbctl/internal/logger"
)

// diagnoseSampleSize bounds how many documents the diagnostics read.
// Permission fields are uniform across a connector run, so a small
// sample is representative.
const diagnoseSampleSize = 50

// maxShapeExamples caps raw values retained per shape for display.
const maxShapeExamples = 3

// permissionFields are the index fields holding per-document ACL entries.
var permissionFields = []string{"UserIds", "GroupIds"}

// Ensure ACLInspector implements the interface.
var _ driving.Diagnoser = (*ACLInspector)(nil)

// ACLInspector samples indexed documents and classifies permission field
// values. The SharePoint connector sometimes emits opaque numeric site
// IDs instead of directory GUIDs; such values never match any caller
// identity, silently hiding documents from everyone. This check makes
// that state visible.
type ACLInspector struct {
	cfg *domain.Configuration
	api driven.SearchAPI
}

// NewACLInspector creates the permission diagnostics service.
func NewACLInspector(cfg *domain.Configuration, api driven.SearchAPI) *ACLInspector {
	return &ACLInspector{cfg: cfg, api: api}
}

// Diagnose reads index statistics and a document sample, then classifies
// every observed permission value by shape.
func (d *ACLInspector) Diagnose(ctx context.Context) (*domain.ACLReport, error) {
	if !d.cfg.EnableACL {
		return nil, domain.NewConfigError("permission diagnostics require ACL mode; set ENABLE_ACL=true")
	}

	index := d.cfg.IndexName()
	stats, err := d.api.IndexStats(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("read index stats: %w", err)
	}

	docs, err := d.api.SampleDocuments(ctx, index, permissionFields, diagnoseSampleSize)
	if err != nil {
		return nil, fmt.Errorf("sample documents: %w", err)
	}
	logger.Debug("sampled %d documents from %s", len(docs), index)

	report := &domain.ACLReport{
		IndexName:        index,
		Stats:            *stats,
		SampledDocuments: len(docs),
	}
	for _, field := range permissionFields {
		report.Fields = append(report.Fields, sampleField(field, docs))
	}
	return report, nil
}

// sampleField aggregates the value shapes of one permission field across
// the sampled documents.
func sampleField(field string, docs []map[string]any) domain.ACLFieldSample {
	sample := domain.ACLFieldSample{
		Field:    field,
		Shapes:   map[domain.ACLValueShape]int{},
		Examples: map[domain.ACLValueShape][]string{},
	}

	for _, doc := range docs {
		values, _ := doc[field].([]any)
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			shape := classifyACLValue(s)
			sample.Total++
			sample.Shapes[shape]++
			if len(sample.Examples[shape]) < maxShapeExamples {
				sample.Examples[shape] = append(sample.Examples[shape], s)
			}
		}
	}
	return sample
}

// classifyACLValue decides whether a permission value is a directory
// GUID, an opaque numeric source ID, or something else entirely.
func classifyACLValue(value string) domain.ACLValueShape {
	if _, err := uuid.Parse(value); err == nil {
		return domain.ShapeGUID
	}
	if isNumeric(value) {
		return domain.ShapeNumeric
	}
	return domain.ShapeOther
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
