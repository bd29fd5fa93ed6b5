// ABOUTME: SQLite implementation of TodoStore
// ABOUTME: Todos carry integer ids and are always scoped by user id

package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ListTodos lists an owner's todos in creation order.
func (s *SQLiteStore) ListTodos(ctx context.Context, userID string) ([]*Todo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, text, completed, created_at
		FROM todos WHERE user_id = ? ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	todos := []*Todo{}
	for rows.Next() {
		var t Todo
		var completed int
		var createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Text, &completed, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning todo: %w", err)
		}
		t.Completed = completed != 0
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		todos = append(todos, &t)
	}
	return todos, rows.Err()
}

// AddTodo creates a todo and returns it with its assigned id.
func (s *SQLiteStore) AddTodo(ctx context.Context, userID, text string) (*Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("todo text is required")
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (user_id, text, completed, created_at)
		VALUES (?, ?, 0, ?)
	`, userID, text, now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("inserting todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading todo id: %w", err)
	}

	s.logger.Debug("added todo", "id", id, "user_id", userID)
	return &Todo{ID: int(id), UserID: userID, Text: text, CreatedAt: now}, nil
}

// CompleteTodo marks a todo done.
// Returns ErrNotFound if the owner has no such todo.
func (s *SQLiteStore) CompleteTodo(ctx context.Context, userID string, id int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE todos SET completed = 1 WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("completing todo: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTodo deletes a todo.
// Returns ErrNotFound if the owner has no such todo.
func (s *SQLiteStore) DeleteTodo(ctx context.Context, userID string, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting todo: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
