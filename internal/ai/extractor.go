// Package ai defines the document extraction boundary: the Extractor
// interface implemented by model providers and the defensive parsing of
// their output into a well-typed extraction record.
package ai

import (
	"context"

	"github.com/talentbridge/diploma-verifier/internal/verification"
)

// Extractor reads a diploma document through a signed URL and returns a
// best-effort structured extraction. Implementations must treat the model as
// a partially-trusted oracle: transport failures are returned as errors,
// unparseable output degrades to the zero-value extraction instead.
type Extractor interface {
	Extract(ctx context.Context, documentURL string) (*verification.Extraction, error)
}
