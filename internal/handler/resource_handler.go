package handler

import (
	"log"
	"net/http"

	"memoboard/internal/storage"
	"memoboard/pkg/response"
)

// maxUploadBytes bounds the multipart form held in memory before
// spilling to temp files.
const maxUploadBytes = 32 << 20

type ResourceHandler struct {
	store *storage.Store
}

func NewResourceHandler(store *storage.Store) *ResourceHandler {
	return &ResourceHandler{store: store}
}

func (h *ResourceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded")
		return
	}
	defer file.Close()

	resource, err := h.store.Save(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		log.Printf("error storing upload %q: %v", header.Filename, err)
		response.InternalError(w, "Failed to upload file")
		return
	}

	response.Success(w, resource)
}
