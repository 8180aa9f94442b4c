package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/talentbridge/diploma-verifier/internal/pipeline"
	"github.com/talentbridge/diploma-verifier/internal/store"
	"github.com/talentbridge/diploma-verifier/internal/verification"
)

type stubLister struct {
	diplomas      []store.Diploma
	err           error
	lastOlderThan time.Duration
	lastLimit     int
}

func (s *stubLister) ListStalePending(_ context.Context, olderThan time.Duration, limit int) ([]store.Diploma, error) {
	s.lastOlderThan = olderThan
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.diplomas, nil
}

type stubRunner struct {
	requests []pipeline.Request
	failFor  map[string]error
}

func (s *stubRunner) Run(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	s.requests = append(s.requests, req)
	if err, ok := s.failFor[req.DiplomaID]; ok {
		return nil, err
	}
	return &pipeline.Result{Success: true, Status: verification.StatusPending}, nil
}

func TestRunOnceRetriesAllStaleDiplomas(t *testing.T) {
	lister := &stubLister{diplomas: []store.Diploma{
		{ID: "d1", TalentID: "t1", FilePath: "p1"},
		{ID: "d2", TalentID: "t2", FilePath: "p2"},
	}}
	runner := &stubRunner{}
	sweeper := New(lister, runner, 2*time.Hour, 50, zap.NewNop())

	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(runner.requests) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runner.requests))
	}
	if runner.requests[0].DiplomaID != "d1" || runner.requests[0].FilePath != "p1" {
		t.Fatalf("unexpected first request: %+v", runner.requests[0])
	}
	if lister.lastOlderThan != 2*time.Hour || lister.lastLimit != 50 {
		t.Fatalf("unexpected list params: %v / %d", lister.lastOlderThan, lister.lastLimit)
	}
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	lister := &stubLister{diplomas: []store.Diploma{
		{ID: "d1", TalentID: "t1", FilePath: "p1"},
		{ID: "d2", TalentID: "t2", FilePath: "p2"},
		{ID: "d3", TalentID: "t3", FilePath: "p3"},
	}}
	runner := &stubRunner{failFor: map[string]error{"d2": errors.New("ocr down")}}
	sweeper := New(lister, runner, 0, 0, zap.NewNop())

	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("individual failures must not abort the batch: %v", err)
	}

	if len(runner.requests) != 3 {
		t.Fatalf("expected all 3 diplomas attempted, got %d", len(runner.requests))
	}
}

func TestRunOnceListFailure(t *testing.T) {
	lister := &stubLister{err: errors.New("db down")}
	sweeper := New(lister, &stubRunner{}, 0, 0, zap.NewNop())

	if err := sweeper.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected list failure to surface")
	}
}

func TestRunOnceEmptyBatch(t *testing.T) {
	runner := &stubRunner{}
	sweeper := New(&stubLister{}, runner, 0, 0, zap.NewNop())

	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.requests) != 0 {
		t.Fatalf("expected no runs for empty batch")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	sweeper := New(&stubLister{}, &stubRunner{}, 0, 0, zap.NewNop())

	if _, err := sweeper.Start("not a schedule"); err == nil {
		t.Fatalf("expected invalid cron expression to fail")
	}
}

func TestDefaultsApplied(t *testing.T) {
	lister := &stubLister{}
	sweeper := New(lister, &stubRunner{}, 0, 0, zap.NewNop())

	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lister.lastOlderThan != defaultOlderThan {
		t.Fatalf("expected default olderThan, got %v", lister.lastOlderThan)
	}
	if lister.lastLimit != defaultBatchSize {
		t.Fatalf("expected default batch size, got %d", lister.lastLimit)
	}
}
