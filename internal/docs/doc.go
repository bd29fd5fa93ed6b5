// Package docs turns uploaded files into retrievable text chunks.
//
// Extract picks a reader by file extension: markdown goes through goldmark
// and keeps only readable text, plain text is used as is. Other types
// return ErrUnsupportedType. Chunk then cuts the text into overlapping
// word windows.
package docs
