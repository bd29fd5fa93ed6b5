// ABOUTME: Store interfaces and data types for development server persistence
// ABOUTME: Defines Todo, Document, and Chunk plus the interfaces the server depends on

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateDocument is returned when content with the same hash is already indexed
var ErrDuplicateDocument = errors.New("document already indexed")

// Todo represents a task on an owner's list
type Todo struct {
	ID        int       `json:"id"`
	UserID    string    `json:"-"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"-"`
}

// Document represents an indexed upload
type Document struct {
	ID        string
	Filename  string
	SHA256    string
	Chunks    int
	CreatedAt time.Time
}

// Chunk is one retrievable window of a document
type Chunk struct {
	DocumentID string
	Seq        int
	Source     string
	Text       string
}

// TodoStore persists task lists. Every operation is scoped to one owner.
type TodoStore interface {
	ListTodos(ctx context.Context, userID string) ([]*Todo, error)
	AddTodo(ctx context.Context, userID, text string) (*Todo, error)
	CompleteTodo(ctx context.Context, userID string, id int) error
	DeleteTodo(ctx context.Context, userID string, id int) error
}

// DocumentStore persists indexed documents and their chunks.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc *Document, chunks []string) error
	GetDocumentByHash(ctx context.Context, sha256 string) (*Document, error)
	ListChunks(ctx context.Context) ([]*Chunk, error)
}
