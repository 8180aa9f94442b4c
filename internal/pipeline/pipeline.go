// Package pipeline orchestrates a single verification run: signed URL,
// document extraction, decision and the two persistence writes. Runs are
// request-scoped and serial; concurrent runs on the same record are
// last-write-wins at the store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talentbridge/diploma-verifier/internal/ai"
	"github.com/talentbridge/diploma-verifier/internal/store"
	"github.com/talentbridge/diploma-verifier/internal/verification"
)

// Step names used in StepError and structured logs.
const (
	StepInput     = "input"
	StepSignedURL = "signed_url"
	StepExtract   = "extract"
	StepPersist   = "persist"
)

// StepError wraps a failure with the pipeline step it occurred in, so
// transports can map steps to status codes.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }

func (e *StepError) Unwrap() error { return e.Err }

// Request identifies one verification run. All fields are required.
type Request struct {
	DiplomaID string `json:"diploma_id"`
	TalentID  string `json:"talent_id"`
	FilePath  string `json:"file_path"`
}

// Result is the payload returned to the caller, mirroring persisted state.
type Result struct {
	Success           bool                `json:"success"`
	Status            verification.Status `json:"status"`
	MinfopVerified    bool                `json:"minfop_verified"`
	ApostilleVerified bool                `json:"apostille_verified"`
	RomeCode          *string             `json:"rome_code"`
	RomeLabel         *string             `json:"rome_label"`
	RomeMatchPercent  int                 `json:"rome_match_percent"`
	Extracted         Extracted           `json:"extracted"`
}

// Extracted carries the best-effort extraction fields; nil means the field
// was not readable.
type Extracted struct {
	Name        *string `json:"name"`
	Date        *string `json:"date"`
	Field       *string `json:"field"`
	Institution *string `json:"institution"`
}

// DocumentStore is the persistence surface the pipeline writes to.
type DocumentStore interface {
	UpdateDiplomaVerification(ctx context.Context, id string, u store.DiplomaUpdate) error
	UpdateTalentProfile(ctx context.Context, talentID string, p verification.ProfileUpdate) error
}

// SignedURLProvider issues short-lived read URLs for stored documents.
type SignedURLProvider interface {
	SignedReadURL(ctx context.Context, filePath string) (string, error)
}

// ExtractionCache is an optional cache-aside around the model call.
type ExtractionCache interface {
	Get(ctx context.Context, filePath string) (*verification.Extraction, bool)
	Put(ctx context.Context, filePath string, ext *verification.Extraction)
}

// Runner executes verification runs.
type Runner struct {
	store     DocumentStore
	documents SignedURLProvider
	extractor ai.Extractor
	cache     ExtractionCache
	logger    *zap.Logger
	now       func() time.Time
}

func NewRunner(documentStore DocumentStore, documents SignedURLProvider, extractor ai.Extractor, cache ExtractionCache, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		store:     documentStore,
		documents: documents,
		extractor: extractor,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one verification run end to end. On a fatal error nothing
// written after the failure point exists, the diploma record keeps whatever
// state it had, and re-running is safe.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, &StepError{Step: StepInput, Err: err}
	}

	log := r.logger.With(
		zap.String("diploma_id", req.DiplomaID),
		zap.String("talent_id", req.TalentID),
	)

	url, err := r.documents.SignedReadURL(ctx, req.FilePath)
	if err != nil {
		return nil, &StepError{Step: StepSignedURL, Err: err}
	}

	ext, cached, err := r.extract(ctx, req.FilePath, url)
	if err != nil {
		return nil, &StepError{Step: StepExtract, Err: err}
	}

	log.Debug("document extracted",
		zap.Bool("from_cache", cached),
		zap.Int("confidence", ext.Confidence),
		zap.String("institution", ext.Institution),
	)

	decision := verification.Decide(*ext)

	log.Info("verification decided",
		zap.String("status", string(decision.Status)),
		zap.Bool("minfop_verified", decision.MinfopVerified),
		zap.Bool("apostille_verified", decision.ApostilleVerified),
		zap.String("rome_code", decision.Occupation.Code),
		zap.Int("rome_match_percent", decision.Occupation.MatchPercent),
	)

	if err := r.persist(ctx, req, *ext, decision); err != nil {
		return nil, &StepError{Step: StepPersist, Err: err}
	}

	return buildResult(*ext, decision), nil
}

func validate(req Request) error {
	switch {
	case strings.TrimSpace(req.DiplomaID) == "":
		return errors.New("diploma_id is required")
	case strings.TrimSpace(req.TalentID) == "":
		return errors.New("talent_id is required")
	case strings.TrimSpace(req.FilePath) == "":
		return errors.New("file_path is required")
	}
	return nil
}

// extract resolves the extraction, consulting the cache first. A zero-value
// extraction (parse failure) is never cached: the next run should get a
// fresh chance at the model.
func (r *Runner) extract(ctx context.Context, filePath, url string) (*verification.Extraction, bool, error) {
	if r.cache != nil {
		if ext, ok := r.cache.Get(ctx, filePath); ok {
			return ext, true, nil
		}
	}

	ext, err := r.extractor.Extract(ctx, url)
	if err != nil {
		return nil, false, err
	}

	if r.cache != nil && *ext != (verification.Extraction{}) {
		r.cache.Put(ctx, filePath, ext)
	}

	return ext, false, nil
}

// persist writes the diploma record and, only when verified, the talent
// profile. The two writes are sequential with no rollback: a profile write
// failure leaves the diploma update in place, an accepted risk.
func (r *Runner) persist(ctx context.Context, req Request, ext verification.Extraction, decision verification.Decision) error {
	now := r.now().UTC()

	update := store.DiplomaUpdate{
		Status:            decision.Status,
		MinfopVerified:    decision.MinfopVerified,
		ApostilleVerified: decision.ApostilleVerified,
		RomeMatchPercent:  decision.Occupation.MatchPercent,
		ExtractedName:     nullable(ext.HolderName),
		ExtractedDate:     nullable(ext.Date),
		ExtractedField:    nullable(ext.FieldOfStudy),
		Details: store.VerificationDetails{
			"ocr_confidence":      ext.Confidence,
			"institution":         ext.Institution,
			"diploma_type":        ext.DiplomaType,
			"has_minfop_stamp":    ext.HasMinfopStamp,
			"has_apostille_stamp": ext.HasApostilleStamp,
			"verified_at":         now.Format(time.RFC3339),
		},
	}
	if !decision.Occupation.IsZero() {
		update.RomeCode = nullable(decision.Occupation.Code)
		update.RomeLabel = nullable(decision.Occupation.Label)
	}

	if err := r.store.UpdateDiplomaVerification(ctx, req.DiplomaID, update); err != nil {
		return fmt.Errorf("update diploma record: %w", err)
	}

	profile := decision.ProfileUpdate(now)
	if profile == nil {
		return nil
	}

	if err := r.store.UpdateTalentProfile(ctx, req.TalentID, *profile); err != nil {
		return fmt.Errorf("update talent profile: %w", err)
	}

	r.logger.Info("talent profile updated",
		zap.String("talent_id", req.TalentID),
		zap.String("rome_code", profile.RomeCode),
		zap.Int("compliance_score", profile.ComplianceScore),
		zap.String("visa_status", profile.VisaStatus),
	)

	return nil
}

func buildResult(ext verification.Extraction, decision verification.Decision) *Result {
	result := &Result{
		Success:           true,
		Status:            decision.Status,
		MinfopVerified:    decision.MinfopVerified,
		ApostilleVerified: decision.ApostilleVerified,
		RomeMatchPercent:  decision.Occupation.MatchPercent,
		Extracted: Extracted{
			Name:        nullable(ext.HolderName),
			Date:        nullable(ext.Date),
			Field:       nullable(ext.FieldOfStudy),
			Institution: nullable(ext.Institution),
		},
	}
	if !decision.Occupation.IsZero() {
		result.RomeCode = nullable(decision.Occupation.Code)
		result.RomeLabel = nullable(decision.Occupation.Label)
	}
	return result
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
