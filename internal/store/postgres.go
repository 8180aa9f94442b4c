// Package store provides Postgres persistence for diploma records and talent
// profiles, plus the Redis-backed extraction cache.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentbridge/diploma-verifier/internal/verification"
)

// ErrNotFound is returned when a diploma or talent profile does not exist.
var ErrNotFound = errors.New("record not found")

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// Store wraps the connection pool with diploma and talent profile queries.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Diploma mirrors a row of the diplomas table.
type Diploma struct {
	ID                string
	TalentID          string
	FilePath          string
	FileName          string
	Status            verification.Status
	ExtractedName     *string
	ExtractedDate     *string
	ExtractedField    *string
	MinfopVerified    bool
	ApostilleVerified bool
	RomeCode          *string
	RomeLabel         *string
	RomeMatchPercent  int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DiplomaUpdate carries the verification outcome written back to a diploma
// record. Pointer fields become NULL when nil.
type DiplomaUpdate struct {
	Status            verification.Status
	MinfopVerified    bool
	ApostilleVerified bool
	RomeCode          *string
	RomeLabel         *string
	RomeMatchPercent  int
	ExtractedName     *string
	ExtractedDate     *string
	ExtractedField    *string
	Details           VerificationDetails
}

// VerificationDetails is the append-only diagnostic bag persisted as JSONB.
// It is informational and never read back into decisions.
type VerificationDetails map[string]any

// GetDiploma returns a single diploma record by ID.
func (s *Store) GetDiploma(ctx context.Context, id string) (*Diploma, error) {
	var d Diploma
	err := s.pool.QueryRow(ctx,
		`SELECT id, talent_id, file_path, COALESCE(file_name, ''), status,
		        extracted_name, extracted_date, extracted_field,
		        minfop_verified, apostille_verified,
		        rome_code, rome_label, rome_match_percent,
		        created_at, updated_at
		 FROM diplomas
		 WHERE id = $1`,
		id,
	).Scan(
		&d.ID, &d.TalentID, &d.FilePath, &d.FileName, &d.Status,
		&d.ExtractedName, &d.ExtractedDate, &d.ExtractedField,
		&d.MinfopVerified, &d.ApostilleVerified,
		&d.RomeCode, &d.RomeLabel, &d.RomeMatchPercent,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get diploma %s: %w", id, err)
	}
	return &d, nil
}

// UpdateDiplomaVerification writes the outcome of a verification run onto the
// diploma record. Re-running verification overwrites the previous outcome.
func (s *Store) UpdateDiplomaVerification(ctx context.Context, id string, u DiplomaUpdate) error {
	details, err := json.Marshal(u.Details)
	if err != nil {
		return fmt.Errorf("marshal verification details: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE diplomas
		 SET status = $2,
		     minfop_verified = $3,
		     apostille_verified = $4,
		     rome_code = $5,
		     rome_label = $6,
		     rome_match_percent = $7,
		     extracted_name = $8,
		     extracted_date = $9,
		     extracted_field = $10,
		     verification_details = $11,
		     updated_at = now()
		 WHERE id = $1`,
		id, string(u.Status),
		u.MinfopVerified, u.ApostilleVerified,
		u.RomeCode, u.RomeLabel, u.RomeMatchPercent,
		u.ExtractedName, u.ExtractedDate, u.ExtractedField,
		details,
	)
	if err != nil {
		return fmt.Errorf("update diploma %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTalentProfile pushes the verification result onto the owning talent
// profile. Field-level update only; unrelated profile columns are untouched.
func (s *Store) UpdateTalentProfile(ctx context.Context, talentID string, p verification.ProfileUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE talent_profiles
		 SET rome_code = $2,
		     rome_label = $3,
		     compliance_score = $4,
		     visa_status = $5,
		     apostille_date = $6,
		     updated_at = now()
		 WHERE id = $1`,
		talentID, p.RomeCode, p.RomeLabel, p.ComplianceScore, p.VisaStatus, p.ApostilleDate,
	)
	if err != nil {
		return fmt.Errorf("update talent profile %s: %w", talentID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStalePending returns pending diplomas that have not been touched for at
// least olderThan, oldest first. Used by the re-verification sweep.
func (s *Store) ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]Diploma, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, talent_id, file_path, COALESCE(file_name, ''), status,
		        extracted_name, extracted_date, extracted_field,
		        minfop_verified, apostille_verified,
		        rome_code, rome_label, rome_match_percent,
		        created_at, updated_at
		 FROM diplomas
		 WHERE status = 'pending'
		   AND extracted_name IS NULL
		   AND updated_at < now() - $1::interval
		 ORDER BY updated_at ASC
		 LIMIT $2`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list stale pending diplomas: %w", err)
	}
	defer rows.Close()

	diplomas := make([]Diploma, 0)
	for rows.Next() {
		var d Diploma
		if err := rows.Scan(
			&d.ID, &d.TalentID, &d.FilePath, &d.FileName, &d.Status,
			&d.ExtractedName, &d.ExtractedDate, &d.ExtractedField,
			&d.MinfopVerified, &d.ApostilleVerified,
			&d.RomeCode, &d.RomeLabel, &d.RomeMatchPercent,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stale pending diploma: %w", err)
		}
		diplomas = append(diplomas, d)
	}
	return diplomas, rows.Err()
}
