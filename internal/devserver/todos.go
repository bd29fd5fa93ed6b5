// ABOUTME: Todo list endpoints and the change notifications they emit
// ABOUTME: Every successful mutation publishes a "todos" push event

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2389/genia/internal/api"
	"github.com/2389/genia/internal/store"
	"github.com/2389/genia/internal/tasks"
)

// defaultOwnerID is used when an unauthenticated request names no owner.
const defaultOwnerID = "1"

var errForbiddenOwner = errors.New("token does not grant access to this user")

// todoActionRequest is the POST /todos body.
type todoActionRequest struct {
	Action string `json:"action"`
	UserID string `json:"user_id"`
	Task   string `json:"task"`
	TaskID int    `json:"task_id"`
}

// todoChange is the data of a "todos" push event.
type todoChange struct {
	Action string `json:"action"`
	UserID string `json:"user_id"`
	ID     int    `json:"id"`
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r, r.URL.Query().Get("user_id"))
	if err != nil {
		s.sendJSONError(w, http.StatusForbidden, err.Error())
		return
	}

	todos, err := s.store.ListTodos(r.Context(), owner)
	if err != nil {
		s.logger.Error("listing todos", "user_id", owner, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, todos)
}

func (s *Server) handleTodoAction(w http.ResponseWriter, r *http.Request) {
	var req todoActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	owner, err := ownerID(r, req.UserID)
	if err != nil {
		s.sendJSONError(w, http.StatusForbidden, err.Error())
		return
	}

	switch req.Action {
	case "add":
		if req.Task == "" {
			s.sendJSONError(w, http.StatusBadRequest, "task is required")
			return
		}
		todo, err := s.addTodo(r.Context(), owner, req.Task)
		if err != nil {
			s.logger.Error("adding todo", "user_id", owner, "error", err)
			s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"status": "added", "id": todo.ID})

	case "complete", "delete":
		err := s.changeTodo(r.Context(), req.Action, owner, req.TaskID)
		if errors.Is(err, store.ErrNotFound) {
			s.sendJSONError(w, http.StatusNotFound, "task not found")
			return
		}
		if err != nil {
			s.logger.Error("updating todo", "action", req.Action, "user_id", owner, "error", err)
			s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		status := "completed"
		if req.Action == "delete" {
			status = "deleted"
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": status})

	default:
		s.sendJSONError(w, http.StatusBadRequest, "action must be add, complete, or delete")
	}
}

// addTodo stores a todo and announces the change.
func (s *Server) addTodo(ctx context.Context, owner, text string) (*store.Todo, error) {
	todo, err := s.store.AddTodo(ctx, owner, text)
	if err != nil {
		return nil, err
	}
	s.publishTodoChange("add", owner, todo.ID)
	return todo, nil
}

// changeTodo completes or deletes a todo and announces the change.
func (s *Server) changeTodo(ctx context.Context, action, owner string, id int) error {
	var err error
	if action == "complete" {
		err = s.store.CompleteTodo(ctx, owner, id)
	} else {
		err = s.store.DeleteTodo(ctx, owner, id)
	}
	if err != nil {
		return err
	}
	s.publishTodoChange(action, owner, id)
	return nil
}

func (s *Server) publishTodoChange(action, owner string, id int) {
	data, err := json.Marshal(todoChange{Action: action, UserID: owner, ID: id})
	if err != nil {
		s.logger.Error("failed to marshal todo change", "error", err)
		return
	}
	eventID := s.broadcaster.Publish(tasks.EventType, string(data))
	s.logger.Debug("published todo change", "action", action, "user_id", owner, "id", id, "event_id", eventID)
}

// toTasks converts stored todos to their wire form.
func toTasks(todos []*store.Todo) []api.Task {
	out := make([]api.Task, len(todos))
	for i, t := range todos {
		out[i] = api.Task{ID: t.ID, Text: t.Text, Completed: t.Completed}
	}
	return out
}
