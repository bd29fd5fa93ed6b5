// ABOUTME: Answer request pipeline turning one question into one assistant message
// ABOUTME: Pure request/decode step; the session decides what to append and when

package answer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/genia/internal/api"
	"github.com/2389/genia/internal/transcript"
)

// ErrEmptyQuestion is returned when the question is blank.
var ErrEmptyQuestion = errors.New("question is empty")

// Service answers questions. *api.Client satisfies it.
type Service interface {
	Ask(ctx context.Context, question string) (*api.Answer, error)
}

// Pipeline runs a single question/answer cycle against a Service.
// It never retries and never writes to a transcript.
type Pipeline struct {
	service Service
	logger  *slog.Logger
}

// NewPipeline creates a pipeline. Pass nil logger for default.
func NewPipeline(service Service, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		service: service,
		logger:  logger.With("component", "answer"),
	}
}

// Ask sends question and returns the assistant message built from the reply.
// Errors from the service are returned unchanged so callers can match the
// api error taxonomy.
func (p *Pipeline) Ask(ctx context.Context, question string) (transcript.Message, error) {
	if strings.TrimSpace(question) == "" {
		return transcript.Message{}, ErrEmptyQuestion
	}

	start := time.Now()
	ans, err := p.service.Ask(ctx, question)
	if err != nil {
		p.logger.Warn("question failed",
			"error", err,
			"elapsed", time.Since(start))
		return transcript.Message{}, err
	}

	p.logger.Debug("question answered",
		"sources", len(ans.Sources),
		"elapsed", time.Since(start))

	sources := ans.Sources
	if len(sources) == 0 {
		sources = nil
	}
	return transcript.AssistantMessage(ans.Text, sources), nil
}
