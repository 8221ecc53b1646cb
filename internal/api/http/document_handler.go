package http

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/service"
)

// DocumentHandler streams stored loan application documents.
type DocumentHandler struct {
	applications service.LoanApplicationService
}

func NewDocumentHandler(applications service.LoanApplicationService) *DocumentHandler {
	return &DocumentHandler{applications: applications}
}

func (h *DocumentHandler) Register(router *mux.Router) {
	router.HandleFunc("/{key:.+}", h.Download).Methods(http.MethodGet)
}

func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	caller, err := mustCaller(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	key := mux.Vars(r)["key"]
	file, err := h.applications.OpenDocument(r.Context(), caller, key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer file.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, file); err != nil {
		logger.Error("failed to stream document", "key", key, "error", err)
	}
}
