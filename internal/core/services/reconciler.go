// Package services contains the core business logic, depending only on
// domain types and ports. Adapters are injected; nothing here touches
// the network directly.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/core/ports/driven"
	"github.com/arclight-labs/kbctl/internal/core/ports/driving"
	"github.com/arclight-labs/kbctl/internal/logger"
	"github.com/arclight-labs/kbctl/internal/schema"
)

// Ensure Reconciler implements the interface.
var _ driving.Provisioner = (*Reconciler)(nil)

// Reconciler converges the remote resource chain onto the desired state
// derived from configuration. It is declarative and idempotent: running
// Apply twice with unchanged configuration performs no writes on the
// second pass.
type Reconciler struct {
	cfg *domain.Configuration
	api driven.SearchAPI
}

// NewReconciler creates a reconciler for the configured resource chain.
func NewReconciler(cfg *domain.Configuration, api driven.SearchAPI) *Reconciler {
	return &Reconciler{cfg: cfg, api: api}
}

// Apply ensures every resource in the chain, in dependency order. The
// definitions for the whole chain are built up front so a mode conflict
// surfaces before any network call. Apply stops at the first failure:
// continuing past a broken dependency would only produce confusing
// downstream errors.
func (r *Reconciler) Apply(ctx context.Context) error {
	defs, err := schema.BuildAll(r.cfg)
	if err != nil {
		return err
	}

	for _, def := range defs {
		if err := r.ensure(ctx, def); err != nil {
			return fmt.Errorf("ensure %s %s: %w", def.Kind, def.Name, err)
		}
	}
	return nil
}

// ensure converges a single resource: create it when absent, update it
// when drifted, do nothing when it already matches the desired state.
func (r *Reconciler) ensure(ctx context.Context, def domain.Definition) error {
	remote, err := r.api.GetResource(ctx, def.Kind, def.Name)
	switch {
	case domain.IsNotFound(err):
		logger.Debug("%s %s: %s -> %s", def.Kind, def.Name, domain.StateAbsent, domain.StateCreating)
		if err := r.api.PutResource(ctx, def); err != nil {
			return err
		}
		logger.Info("Created %s %s", def.Kind, def.Name)
		return nil
	case err != nil:
		return err
	}

	if def.Kind == domain.KindIndex {
		if err := checkACLFlip(r.cfg, remote); err != nil {
			return err
		}
	}

	if subset(def.Body, remote) {
		logger.Debug("%s %s: %s, no changes", def.Kind, def.Name, domain.StatePresent)
		return nil
	}

	logger.Debug("%s %s: drifted, updating", def.Kind, def.Name)
	if err := r.api.PutResource(ctx, def); err != nil {
		return err
	}
	logger.Info("Updated %s %s", def.Kind, def.Name)
	return nil
}

// checkACLFlip refuses to flip permission filtering on an existing
// index. The remote service cannot change the option in place, and a
// blind update would fail with an opaque error after the data source
// was already modified. The operator must delete and recreate instead.
func checkACLFlip(cfg *domain.Configuration, remote map[string]any) error {
	option, _ := remote["permissionFilterOption"].(string)
	remoteEnabled := option == "enabled"

	if remoteEnabled == cfg.EnableACL {
		return nil
	}

	desired := "disabled"
	if cfg.EnableACL {
		desired = "enabled"
	}
	return &domain.ModeConflictError{
		Reason: fmt.Sprintf(
			"index %s has permission filtering %s but configuration wants it %s; "+
				"the option cannot change in place, delete and re-apply instead",
			cfg.IndexName(), option, desired),
	}
}

// Run triggers the ingestion job. The remote side accepts and executes
// asynchronously; observe progress with Status.
func (r *Reconciler) Run(ctx context.Context) error {
	if err := r.api.RunIndexer(ctx, r.cfg.IndexerName()); err != nil {
		return err
	}
	logger.Info("Indexer %s run requested", r.cfg.IndexerName())
	return nil
}

// Status reads a point-in-time snapshot of the ingestion job.
func (r *Reconciler) Status(ctx context.Context) (*domain.IndexerStatus, error) {
	return r.api.IndexerStatus(ctx, r.cfg.IndexerName())
}

// Reset clears ingestion state and triggers a fresh run so that schema
// or mapping changes take effect for every source document.
func (r *Reconciler) Reset(ctx context.Context) error {
	if err := r.api.ResetIndexer(ctx, r.cfg.IndexerName()); err != nil {
		return err
	}
	logger.Info("Indexer %s reset", r.cfg.IndexerName())
	return r.Run(ctx)
}

// DeleteAll removes every resource in reverse dependency order, so a
// resource is never deleted while a dependent still references it.
// Already-absent resources count as success, making cleanup re-runnable.
func (r *Reconciler) DeleteAll(ctx context.Context) error {
	for i := len(domain.ApplyOrder) - 1; i >= 0; i-- {
		kind := domain.ApplyOrder[i]
		name := r.resourceName(kind)

		logger.Debug("%s %s: %s", kind, name, domain.StateDeleting)
		err := r.api.DeleteResource(ctx, kind, name)
		switch {
		case domain.IsNotFound(err):
			logger.Debug("%s %s already absent", kind, name)
		case err != nil:
			return fmt.Errorf("delete %s %s: %w", kind, name, err)
		default:
			logger.Info("Deleted %s %s", kind, name)
		}
	}
	return nil
}

// ListKnowledgeSources enumerates existing knowledge sources on the
// service, not just the one this configuration manages.
func (r *Reconciler) ListKnowledgeSources(ctx context.Context) ([]domain.ResourceSummary, error) {
	return r.api.ListResources(ctx, domain.KindKnowledgeSource)
}

// resourceName maps a kind to the derived name for this configuration.
func (r *Reconciler) resourceName(kind domain.ResourceKind) string {
	switch kind {
	case domain.KindDataSource:
		return r.cfg.DataSourceName()
	case domain.KindIndex:
		return r.cfg.IndexName()
	case domain.KindSkillset:
		return r.cfg.SkillsetName()
	case domain.KindIndexer:
		return r.cfg.IndexerName()
	case domain.KindKnowledgeSource:
		return r.cfg.KnowledgeSourceName()
	case domain.KindKnowledgeBase:
		return r.cfg.KBName()
	default:
		return string(kind)
	}
}

// ignoredKeys are stripped from the comparison between desired and
// remote state. Volatile metadata differs on every read, and the remote
// side redacts credentials, so neither can signal drift.
func ignoredKey(key string) bool {
	if strings.HasPrefix(key, "@odata") {
		return true
	}
	switch key {
	case "etag", "credentials", "apiKey", "encryptionKey":
		return true
	}
	return false
}

// subset reports whether every value in desired is already present in
// remote. Remote-only keys are server-populated defaults and do not
// count as drift; a remote that contains everything we would send is
// converged.
func subset(desired, remote any) bool {
	switch d := desired.(type) {
	case map[string]any:
		rm, ok := remote.(map[string]any)
		if !ok {
			return false
		}
		for k, dv := range d {
			if ignoredKey(k) {
				continue
			}
			rv, present := rm[k]
			if !present {
				if dv == nil {
					continue
				}
				return false
			}
			if !subset(dv, rv) {
				return false
			}
		}
		return true
	case []any:
		rs, ok := remote.([]any)
		if !ok || len(rs) != len(d) {
			return false
		}
		for i := range d {
			if !subset(d[i], rs[i]) {
				return false
			}
		}
		return true
	case nil:
		return remote == nil
	default:
		dn, dok := asFloat(desired)
		rn, rok := asFloat(remote)
		if dok && rok {
			return dn == rn
		}
		return desired == remote
	}
}

// asFloat normalizes numeric values: desired bodies carry Go ints while
// decoded remote JSON carries float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
