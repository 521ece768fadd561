package content

import (
	"context"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG INTERFACE
// The content catalog is owned by an external content-management service.
// This engine consumes it strictly read-only, keyed by (domain, level).
// Implementations live in infrastructure/service.
// ══════════════════════════════════════════════════════════════════════════════

// Template is raw catalog material the path generator draws from. Item
// identity, type placement and branching rules are assigned by the
// generator, not by the catalog.
type Template struct {
	// Title is the display title of the source material.
	Title string

	// Body is the instructional text.
	Body string

	// BaseDuration is the unadapted time estimate.
	BaseDuration shared.Minutes

	// Topics are catalog-assigned topic tags.
	Topics shared.Tags
}

// Catalog provides read-only access to instructional material.
type Catalog interface {
	// FetchTemplates returns source material for the given domain and level.
	// Returns shared.ErrCatalogUnavailable if the external source cannot be
	// reached; the engine performs no retries of its own.
	FetchTemplates(ctx context.Context, domain string, level learner.Level) ([]Template, error)
}
