// Package transcript holds the ordered record of a chat session.
//
// # Overview
//
// A transcript is an append-only sequence of [Message] values. Insertion
// order is display order and conversational order. Nothing in this package
// removes or reorders messages.
//
// # Snapshots
//
// [Store.Append] is copy-on-write: every append produces a fresh slice, so a
// caller holding an earlier snapshot from [Store.Messages] keeps seeing the
// same contents no matter what is appended later.
//
//	store := transcript.NewStore()
//	before := store.Messages()
//	after, _ := store.Append(transcript.UserMessage("hello"))
//	// len(before) == 0, len(after) == 1
//
// # Citations
//
// Assistant answers carry sources that arrive either as bare strings or as
// objects with a "source" field. [Citation] accepts both and normalizes them
// to a display label while keeping the raw JSON.
package transcript
