// Package devserver is a self-contained reference backend for the genia
// client. It serves the four endpoints the client speaks:
//
//	POST /chat     answer a question from indexed documents or the todo list
//	POST /upload   index a .md or .txt document (multipart field "file")
//	GET  /todos    list an owner's todos; POST applies add, complete, delete
//	GET  /events   server-sent events; every todo change emits "event: todos"
//
// Documents and todos live in SQLite. Answers are extractive unless a
// Gemini API key is configured. When a JWT secret is configured every
// endpoint requires a bearer token whose subject is the owner id.
package devserver
