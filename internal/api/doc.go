// Package api is the HTTP binding for the assistant's backend services.
//
// # Services
//
//   - POST /chat     question answering: {"question"} -> {"answer", "sources"}
//   - POST /upload   document ingestion: multipart field "file"
//   - GET  /todos    task list for an owner: ?user_id=<owner>
//   - GET  /events   push channel (text/event-stream)
//
// # Errors
//
// Every failure maps onto a small taxonomy that callers match with errors.Is:
//
//   - [ErrServiceUnavailable]: transport failure or a non-success status
//     (a [*StatusError] carries the code and unwraps to this sentinel)
//   - [ErrMalformedResponse]: the body could not be decoded or lacks a
//     required field
//   - [ErrTimeout]: the per-call bound elapsed
//
// The client never retries. Retry policy belongs to the caller.
//
// # Authentication
//
// When a token is configured every request carries
// "Authorization: Bearer <token>".
package api
