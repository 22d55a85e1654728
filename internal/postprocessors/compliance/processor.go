// Package compliance provides a policy-check processor that blocks
// documents containing material that must not enter the retrieval
// surface, such as credentials or private key blocks.
package compliance

import (
	"context"
	"regexp"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
)

// denyPatterns flag content that fails the ingestion policy.
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`-----BEGIN (?:RSA |EC |OPENSSH )?PRIVATE KEY-----`),
	regexp.MustCompile(`(?i)aws_secret_access_key\s*[:=]\s*\S+`),
	regexp.MustCompile(`(?i)(?:api[_-]?key|secret[_-]?token)\s*[:=]\s*['"][A-Za-z0-9_\-]{16,}['"]`),
	regexp.MustCompile(`\bxox[bpars]-[A-Za-z0-9\-]{10,}\b`),
}

// Processor runs the policy check against document content before
// chunking. It implements the PostProcessor interface.
type Processor struct{}

// New creates a new compliance processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "compliance"
}

// Process checks document content against the deny patterns.
// A violation fails the whole document; the ingestor records it as a
// batch error and continues with the next document.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for _, pattern := range denyPatterns {
		if loc := pattern.FindStringIndex(doc.Content); loc != nil {
			err := domain.NewError(domain.KindCompliance, "policy check", nil).
				WithContext("source_path", doc.SourcePath).
				WithContext("offset", loc[0]).
				WithContext("pattern", pattern.String())
			return nil, err
		}
	}
	return chunks, nil
}
