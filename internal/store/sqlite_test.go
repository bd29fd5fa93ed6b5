// ABOUTME: Tests for the SQLite store
// ABOUTME: Uses a real database file under t.TempDir for todo and document round trips

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestTodos(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.AddTodo(ctx, "1", "renew passport")
	if err != nil {
		t.Fatalf("AddTodo: %v", err)
	}
	second, err := s.AddTodo(ctx, "1", "  book flights ")
	if err != nil {
		t.Fatalf("AddTodo: %v", err)
	}
	if _, err := s.AddTodo(ctx, "2", "someone else's"); err != nil {
		t.Fatalf("AddTodo: %v", err)
	}

	if second.ID <= first.ID {
		t.Errorf("ids should increase: %d then %d", first.ID, second.ID)
	}
	if second.Text != "book flights" {
		t.Errorf("Text = %q, want trimmed", second.Text)
	}

	if err := s.CompleteTodo(ctx, "1", first.ID); err != nil {
		t.Fatalf("CompleteTodo: %v", err)
	}

	todos, err := s.ListTodos(ctx, "1")
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if len(todos) != 2 {
		t.Fatalf("expected 2 todos, got %d", len(todos))
	}
	if !todos[0].Completed || todos[1].Completed {
		t.Errorf("completion flags = %v, %v; want true, false", todos[0].Completed, todos[1].Completed)
	}

	if err := s.DeleteTodo(ctx, "1", second.ID); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}
	todos, _ = s.ListTodos(ctx, "1")
	if len(todos) != 1 {
		t.Errorf("expected 1 todo after delete, got %d", len(todos))
	}
}

func TestTodos_ScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	todo, err := s.AddTodo(ctx, "1", "mine")
	if err != nil {
		t.Fatalf("AddTodo: %v", err)
	}

	if err := s.CompleteTodo(ctx, "2", todo.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("CompleteTodo other owner: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTodo(ctx, "2", todo.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteTodo other owner: err = %v, want ErrNotFound", err)
	}
	if err := s.CompleteTodo(ctx, "1", 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("CompleteTodo missing id: err = %v, want ErrNotFound", err)
	}
}

func TestListTodos_EmptyIsNotNil(t *testing.T) {
	s := newTestStore(t)

	todos, err := s.ListTodos(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if todos == nil || len(todos) != 0 {
		t.Errorf("ListTodos = %v, want empty non-nil slice", todos)
	}
}

func TestAddTodo_RejectsBlank(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AddTodo(context.Background(), "1", "   "); err == nil {
		t.Error("AddTodo should reject blank text")
	}
}

func TestDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := &Document{Filename: "policy.md", SHA256: "abc123"}
	if err := s.SaveDocument(ctx, doc, []string{"refunds within 30 days", "shipping is free"}); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if doc.ID == "" || doc.Chunks != 2 {
		t.Errorf("document = %+v, want id set and 2 chunks", doc)
	}

	got, err := s.GetDocumentByHash(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetDocumentByHash: %v", err)
	}
	if got.Filename != "policy.md" || got.Chunks != 2 {
		t.Errorf("GetDocumentByHash = %+v", got)
	}

	chunks, err := s.ListChunks(ctx)
	if err != nil {
		t.Fatalf("ListChunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Source != "policy.md" || chunks[0].Seq != 0 || chunks[1].Seq != 1 {
		t.Errorf("chunks = %+v, %+v", chunks[0], chunks[1])
	}
}

func TestDocuments_DuplicateHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveDocument(ctx, &Document{Filename: "a.txt", SHA256: "same"}, []string{"x"}); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	err := s.SaveDocument(ctx, &Document{Filename: "b.txt", SHA256: "same"}, []string{"x"})
	if !errors.Is(err, ErrDuplicateDocument) {
		t.Errorf("SaveDocument duplicate: err = %v, want ErrDuplicateDocument", err)
	}

	chunks, _ := s.ListChunks(ctx)
	if len(chunks) != 1 {
		t.Errorf("duplicate insert must not add chunks, got %d", len(chunks))
	}
}

func TestGetDocumentByHash_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDocumentByHash(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
