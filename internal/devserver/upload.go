// ABOUTME: Document upload endpoint: validate, extract, chunk, and index
// ABOUTME: Identical content is acknowledged without indexing it again

package devserver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/2389/genia/internal/api"
	"github.com/2389/genia/internal/docs"
	"github.com/2389/genia/internal/store"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.sendJSONError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.sendJSONError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !docs.Supported(filename) {
		s.sendJSONError(w, http.StatusUnsupportedMediaType, docs.ErrUnsupportedType.Error())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	logger := s.logger.With("filename", filename, "sha256", hash[:12])

	if ack, ok := s.uploads.Get(hash); ok {
		logger.Info("duplicate upload acknowledged from cache")
		s.writeJSON(w, http.StatusOK, duplicateAck(ack))
		return
	}

	existing, err := s.store.GetDocumentByHash(r.Context(), hash)
	if err == nil {
		ack := api.Ack{Status: "indexed", Chunks: existing.Chunks}
		s.uploads.Put(hash, ack)
		logger.Info("duplicate upload acknowledged", "document_id", existing.ID)
		s.writeJSON(w, http.StatusOK, duplicateAck(ack))
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		logger.Error("looking up document", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	text, err := docs.Extract(filename, data)
	if err != nil {
		s.sendJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	chunks := docs.Chunk(text, docs.DefaultChunkSize, docs.DefaultOverlap)
	if len(chunks) == 0 {
		s.sendJSONError(w, http.StatusUnprocessableEntity, "document has no text")
		return
	}

	doc := &store.Document{ID: uuid.New().String(), Filename: filename, SHA256: hash}
	if s.uploadsDir != "" {
		path := filepath.Join(s.uploadsDir, doc.ID+"-"+filename)
		if err := os.WriteFile(path, data, 0644); err != nil {
			logger.Error("saving upload", "error", err)
			s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	err = s.store.SaveDocument(r.Context(), doc, chunks)
	if errors.Is(err, store.ErrDuplicateDocument) {
		ack := api.Ack{Status: "indexed", Chunks: len(chunks)}
		s.writeJSON(w, http.StatusOK, duplicateAck(ack))
		return
	}
	if err != nil {
		logger.Error("indexing document", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	ack := api.Ack{Status: "indexed", Chunks: doc.Chunks}
	s.uploads.Put(hash, ack)

	logger.Info("document indexed", "document_id", doc.ID, "chunks", doc.Chunks)
	s.writeJSON(w, http.StatusOK, ack)
}

func duplicateAck(ack api.Ack) api.Ack {
	ack.Duplicate = true
	return ack
}
