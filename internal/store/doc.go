// Package store provides persistent storage for the development server using SQLite.
//
// # Data Models
//
//   - Todo: one task on an owner's list, keyed by an integer id
//   - Document: an indexed upload, identified by the SHA-256 of its content
//   - Chunk: one overlapping window of a document's text, the unit of retrieval
//
// SQLiteStore implements TodoStore and DocumentStore in a single struct. The
// schema is created on open; the database runs in WAL mode.
//
// # Usage
//
//	s, err := store.NewSQLiteStore("genia.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	todo, err := s.AddTodo(ctx, "1", "renew passport")
package store
