package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/acmetrans/mgcp/internal/models"
)

// DocumentHandler serves generated artifacts by id, 404ing when either the
// record or the underlying file is gone.
type DocumentHandler struct {
	DB *gorm.DB
}

func NewDocumentHandler(db *gorm.DB) *DocumentHandler {
	return &DocumentHandler{DB: db}
}

func (h *DocumentHandler) load(w http.ResponseWriter, r *http.Request) (*models.GeneratedDocument, bool) {
	var doc models.GeneratedDocument
	if err := h.DB.First(&doc, "id = ?", r.PathValue("document_id")).Error; err != nil {
		http.Error(w, "Documento no encontrado", http.StatusNotFound)
		return nil, false
	}
	if _, err := os.Stat(doc.Path); err != nil {
		http.Error(w, "Archivo no encontrado en el servidor", http.StatusNotFound)
		return nil, false
	}
	return &doc, true
}

func contentType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "application/pdf"
	}
	return "text/html; charset=utf-8"
}

// View: GET /documents/view/{document_id} – inline.
func (h *DocumentHandler) View(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", contentType(doc.Path))
	http.ServeFile(w, r, doc.Path)
}

// Download: GET /documents/download/{document_id} – attachment.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", contentType(doc.Path))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(doc.Path)+`"`)
	http.ServeFile(w, r, doc.Path)
}
