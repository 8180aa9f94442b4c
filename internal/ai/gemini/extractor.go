package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/talentbridge/diploma-verifier/internal/ai"
	"github.com/talentbridge/diploma-verifier/internal/logger"
	"github.com/talentbridge/diploma-verifier/internal/verification"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Extractor implements ai.Extractor by prompting Gemini with the signed
// document URL and defensively parsing whatever comes back.
type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewExtractor(generator contentGenerator, log *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Extractor{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Extract runs one extraction round-trip. A transport failure is returned to
// the caller as-is and aborts the verification run; an unparseable response
// degrades to the zero-value extraction.
func (e *Extractor) Extract(ctx context.Context, documentURL string) (*verification.Extraction, error) {
	documentURL = strings.TrimSpace(documentURL)
	if documentURL == "" {
		return nil, fmt.Errorf("document url is required")
	}

	prompt := buildPrompt(documentURL)

	e.logger.Debug("gemini extraction request",
		zap.String("model", e.generator.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract document: %w", err)
	}

	e.logger.Debug("gemini extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, e.maxLogLen)),
	)

	ext := ai.ParseExtraction(raw)
	if *ext == (verification.Extraction{}) {
		e.logger.Warn("gemini response was not parseable, using empty extraction",
			zap.String("response_preview", logger.TruncateForLog(raw, e.maxLogLen)),
		)
	}

	return ext, nil
}

func buildPrompt(documentURL string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Extract diploma fields from {{DOCUMENT_URL}} as JSON."
	}
	return strings.ReplaceAll(template, "{{DOCUMENT_URL}}", documentURL)
}
