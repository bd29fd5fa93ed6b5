// ABOUTME: Question answering endpoint
// ABOUTME: Todo requests are served from the todo store; everything else from indexed documents

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/2389/genia/internal/store"
	"github.com/2389/genia/internal/tasks"
)

type chatRequest struct {
	Question string `json:"question"`
}

type chatSource struct {
	Source string `json:"source"`
}

type chatResponse struct {
	Answer  string       `json:"answer"`
	Sources []chatSource `json:"sources"`
}

var (
	completeTodoRe = regexp.MustCompile(`(?i)\b(?:complete|finish|check off|mark)\s+(?:the\s+)?(?:task|todo)\s*#?(\d+)`)
	deleteTodoRe   = regexp.MustCompile(`(?i)\b(?:delete|remove)\s+(?:the\s+)?(?:task|todo)\s*#?(\d+)`)
	addTodoRe      = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:add|create)\s+(?:a\s+|an\s+)?(?:new\s+)?(?:task|todo)\s*(?::\s*|to\s+)?(.+?)\s*[.!]?\s*$`)
	remindRe       = regexp.MustCompile(`(?i)^\s*remind me to\s+(.+?)\s*[.!]?\s*$`)
	todoMentionRe  = regexp.MustCompile(`(?i)\b(?:todos?|to-dos?|tasks?)\b`)
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.sendJSONError(w, http.StatusBadRequest, "question is required")
		return
	}

	owner, err := ownerID(r, "")
	if err != nil {
		s.sendJSONError(w, http.StatusForbidden, err.Error())
		return
	}

	if answer, ok, err := s.answerTodoRequest(r.Context(), owner, question); ok {
		if err != nil {
			s.logger.Error("todo request failed", "user_id", owner, "error", err)
			s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		s.writeJSON(w, http.StatusOK, chatResponse{Answer: answer, Sources: []chatSource{}})
		return
	}

	chunks, err := s.store.ListChunks(r.Context())
	if err != nil {
		s.logger.Error("loading chunks", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	passages := retrieve(chunks, question, retrievalK)
	answer, err := s.answerer.Answer(r.Context(), question, passages)
	if err != nil {
		s.logger.Error("answering question", "error", err)
		s.sendJSONError(w, http.StatusBadGateway, "could not generate an answer")
		return
	}

	resp := chatResponse{Answer: answer, Sources: []chatSource{}}
	for _, src := range sourcesOf(passages) {
		resp.Sources = append(resp.Sources, chatSource{Source: src})
	}

	s.logger.Info("answered question", "passages", len(passages), "sources", len(resp.Sources))
	s.writeJSON(w, http.StatusOK, resp)
}

// answerTodoRequest handles questions about the todo list. ok is false when
// the question is not about todos.
func (s *Server) answerTodoRequest(ctx context.Context, owner, question string) (answer string, ok bool, err error) {
	if m := completeTodoRe.FindStringSubmatch(question); m != nil {
		return s.applyTodoChange(ctx, "complete", owner, m[1])
	}
	if m := deleteTodoRe.FindStringSubmatch(question); m != nil {
		return s.applyTodoChange(ctx, "delete", owner, m[1])
	}

	text := ""
	if m := addTodoRe.FindStringSubmatch(question); m != nil {
		text = m[1]
	} else if m := remindRe.FindStringSubmatch(question); m != nil {
		text = m[1]
	}
	if text != "" {
		todo, err := s.addTodo(ctx, owner, text)
		if err != nil {
			return "", true, err
		}
		return fmt.Sprintf("Added task #%d: %s", todo.ID, todo.Text), true, nil
	}

	if !todoMentionRe.MatchString(question) {
		return "", false, nil
	}

	todos, err := s.store.ListTodos(ctx, owner)
	if err != nil {
		return "", true, err
	}
	if len(todos) == 0 {
		return "You have no tasks.", true, nil
	}

	var b strings.Builder
	b.WriteString("Your tasks:")
	for _, t := range toTasks(todos) {
		fmt.Fprintf(&b, "\n#%d %s", t.ID, tasks.Render(t))
	}
	return b.String(), true, nil
}

func (s *Server) applyTodoChange(ctx context.Context, action, owner, rawID string) (string, bool, error) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return fmt.Sprintf("%q is not a task number.", rawID), true, nil
	}

	err = s.changeTodo(ctx, action, owner, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("I couldn't find task #%d.", id), true, nil
	}
	if err != nil {
		return "", true, err
	}

	if action == "complete" {
		return fmt.Sprintf("Marked task #%d as done.", id), true, nil
	}
	return fmt.Sprintf("Deleted task #%d.", id), true, nil
}
