package verification

import (
	"math"
	"time"
)

// Status is the tri-state outcome of a verification run.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Visa statuses pushed onto the talent profile when a diploma verifies.
const (
	VisaStatusApostilled = "apostilled"
	VisaStatusInProgress = "in_progress"
)

const (
	verifiedMatchThreshold = 50
	rejectedMatchThreshold = 30

	minfopScoreWeight    = 30
	apostilleScoreWeight = 30
	matchScoreWeight     = 0.4
)

// Decision combines institution, apostille and occupation evidence into the
// persisted verification outcome.
type Decision struct {
	Status            Status
	MinfopVerified    bool
	ApostilleVerified bool
	Occupation        OccupationMatch
}

// ProfileUpdate carries the fields written to the owning talent profile when
// a diploma reaches verified status.
type ProfileUpdate struct {
	RomeCode        string
	RomeLabel       string
	ComplianceScore int
	VisaStatus      string
	ApostilleDate   *time.Time
}

// Decide evaluates an extraction into a Decision. It is a pure function: the
// same extraction always yields the same decision.
//
// The three status branches are mutually exclusive and exhaustive. Anything
// between clear-cut verified and clear-cut rejected stays pending and is
// routed to manual review.
func Decide(ext Extraction) Decision {
	// A completely empty extraction means the model output could not be
	// parsed: there is no evidence either way, so the record stays pending
	// for manual review instead of being rejected.
	if ext == (Extraction{}) {
		return Decision{Status: StatusPending}
	}

	minfop := ext.HasMinfopStamp || IsKnownInstitution(ext.Institution)
	apostille := ext.HasApostilleStamp
	occupation := MapToOccupation(ext.FieldOfStudy, ext.DiplomaType, ext.Confidence)

	status := StatusPending
	switch {
	case minfop && apostille && occupation.MatchPercent >= verifiedMatchThreshold:
		status = StatusVerified
	case !minfop && !apostille && occupation.MatchPercent < rejectedMatchThreshold:
		status = StatusRejected
	}

	return Decision{
		Status:            status,
		MinfopVerified:    minfop,
		ApostilleVerified: apostille,
		Occupation:        occupation,
	}
}

// ComplianceScore derives the 0-100 credential score from the decision
// evidence. With the verified gating (both checks true, match >= 50) the
// score always lands in [80,100].
func (d Decision) ComplianceScore() int {
	score := 0.0
	if d.MinfopVerified {
		score += minfopScoreWeight
	}
	if d.ApostilleVerified {
		score += apostilleScoreWeight
	}
	score += matchScoreWeight * float64(d.Occupation.MatchPercent)

	return int(math.Round(score))
}

// ProfileUpdate returns the talent profile mutation for this decision, or nil
// when the profile must stay untouched (not verified, or no occupation code
// resolved).
func (d Decision) ProfileUpdate(now time.Time) *ProfileUpdate {
	if d.Status != StatusVerified || d.Occupation.IsZero() {
		return nil
	}

	update := &ProfileUpdate{
		RomeCode:        d.Occupation.Code,
		RomeLabel:       d.Occupation.Label,
		ComplianceScore: d.ComplianceScore(),
		VisaStatus:      VisaStatusInProgress,
	}

	if d.ApostilleVerified {
		update.VisaStatus = VisaStatusApostilled
		date := now
		update.ApostilleDate = &date
	}

	return update
}
