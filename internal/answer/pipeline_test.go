// ABOUTME: Tests for the answer request pipeline
// ABOUTME: Uses a stub service to cover success, validation, and error passthrough

package answer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/genia/internal/api"
	"github.com/2389/genia/internal/transcript"
)

type stubService struct {
	answer *api.Answer
	err    error
	calls  []string
}

func (s *stubService) Ask(_ context.Context, question string) (*api.Answer, error) {
	s.calls = append(s.calls, question)
	return s.answer, s.err
}

func TestPipeline_BuildsAssistantMessage(t *testing.T) {
	svc := &stubService{answer: &api.Answer{
		Text:    "30 days",
		Sources: []transcript.Citation{transcript.LabelCitation("policy.pdf")},
	}}
	p := NewPipeline(svc, nil)

	msg, err := p.Ask(context.Background(), "What is the refund policy?")
	require.NoError(t, err)

	assert.Equal(t, transcript.RoleAssistant, msg.Role)
	assert.Equal(t, "30 days", msg.Content)
	assert.Equal(t, []string{"policy.pdf"}, msg.SourceLabels())
	assert.Equal(t, []string{"What is the refund policy?"}, svc.calls)
}

func TestPipeline_RejectsBlankQuestion(t *testing.T) {
	svc := &stubService{}
	p := NewPipeline(svc, nil)

	_, err := p.Ask(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, svc.calls, "blank questions must not reach the service")
}

func TestPipeline_PassesServiceErrorsThrough(t *testing.T) {
	svc := &stubService{err: fmt.Errorf("asking question: %w", api.ErrServiceUnavailable)}
	p := NewPipeline(svc, nil)

	_, err := p.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, api.ErrServiceUnavailable)
	assert.Len(t, svc.calls, 1, "no automatic retry")
}

func TestPipeline_EmptySourcesAreNil(t *testing.T) {
	svc := &stubService{answer: &api.Answer{Text: "hi", Sources: []transcript.Citation{}}}
	p := NewPipeline(svc, nil)

	msg, err := p.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Nil(t, msg.Sources)
}
