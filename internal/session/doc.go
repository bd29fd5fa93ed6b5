// Package session orchestrates one chat session.
//
// # Overview
//
// A [Session] composes the transcript store, the answer pipeline, the
// ingestion coordinator, the push channel subscriber, and the task
// synchronizer. It is the single owner of the pending state and routes user
// intents to the right component.
//
// # State machine
//
//	idle --Send(text)--> awaiting-answer --reply|error--> idle
//	idle --Upload(f)---> awaiting-upload --ack|error----> idle
//
// Sends and uploads may overlap because they touch disjoint state, but at
// most one of each kind is outstanding: a second Send while an answer is
// pending returns [ErrSendInFlight], a second Upload returns
// ingest.ErrUploadInFlight. Blank text is ignored without error.
//
// While an answer is pending the user's question is exposed as
// [View.Pending]. It is committed to the transcript together with the
// assistant reply, so a failed call leaves the transcript exactly as it was
// and records a [Failure] carrying the question instead.
//
// # Lifecycle
//
//	s := session.New(session.Deps{...})
//	s.OnChange(render)
//	if err := s.Start(ctx); err != nil { ... } // subscribe + initial task fetch
//	defer s.Close()                              // unsubscribe, stop delivering
//
// After Close, results of calls still in flight are discarded: nothing is
// appended and no listener runs.
package session
