// Package httpapi exposes the verification pipeline over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/talentbridge/diploma-verifier/internal/pipeline"
)

// VerificationRunner is the pipeline surface the handler calls into.
type VerificationRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Handler serves the verification endpoint.
type Handler struct {
	runner VerificationRunner
	logger *zap.Logger
}

// Register mounts the verification routes on the router.
func Register(router *gin.Engine, runner VerificationRunner, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{runner: runner, logger: logger}

	router.POST("/api/v1/verify", h.Verify)
	router.GET("/healthz", h.Health)
}

// Verify triggers one verification run for an uploaded diploma.
func (h *Handler) Verify(c *gin.Context) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.runner.Run(c.Request.Context(), req)
	if err != nil {
		status, msg := statusForError(err)

		h.logger.Error("verification run failed",
			zap.String("diploma_id", req.DiplomaID),
			zap.Int("http_status", status),
			zap.Error(err),
		)

		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusForError maps pipeline step failures to HTTP statuses: bad input is
// the caller's fault, extraction transport failures are an upstream problem,
// everything else is internal.
func statusForError(err error) (int, string) {
	var stepErr *pipeline.StepError
	if !errors.As(err, &stepErr) {
		return http.StatusInternalServerError, "verification failed"
	}

	switch stepErr.Step {
	case pipeline.StepInput:
		return http.StatusBadRequest, stepErr.Err.Error()
	case pipeline.StepSignedURL, pipeline.StepExtract:
		return http.StatusBadGateway, "document extraction failed"
	default:
		return http.StatusInternalServerError, "verification failed"
	}
}
