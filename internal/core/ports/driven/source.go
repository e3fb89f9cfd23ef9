package driven

import (
	"context"

	"github.com/wayfarer-labs/wayfarer/internal/core/domain"
)

// PostSource lists documents from the upstream CMS in pages.
//
// Page numbers are 1-based. An empty slice signals the end of the
// listing; callers must treat it as the pagination stop condition and
// issue no further fetches.
type PostSource interface {
	// ListPosts fetches one page of documents. A non-success upstream
	// status surfaces as an error wrapping domain.ErrUpstreamFetch.
	ListPosts(ctx context.Context, page, perPage int) ([]domain.Document, error)
}
