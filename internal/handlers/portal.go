package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/acmetrans/mgcp/internal/httpx"
	"github.com/acmetrans/mgcp/internal/models"
	"github.com/acmetrans/mgcp/internal/services"
	"github.com/acmetrans/mgcp/internal/view"
)

// PortalHandler serves the client-facing token routes. No session auth here:
// the access token is the whole credential, and browser GETs get rendered
// pages instead of raw errors.
type PortalHandler struct {
	DB      *gorm.DB
	Svc     *services.ProposalService
	BaseURL string
}

func NewPortalHandler(db *gorm.DB, svc *services.ProposalService, baseURL string) *PortalHandler {
	return &PortalHandler{DB: db, Svc: svc, BaseURL: baseURL}
}

// View: GET /client/proposal/{token}
func (h *PortalHandler) View(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.ResolveToken(r.PathValue("token"))
	switch {
	case errors.Is(err, services.ErrExpired):
		_ = view.Render(w, "proposal_expired.html", map[string]any{"Proposal": p})
		return
	case err != nil:
		w.WriteHeader(http.StatusNotFound)
		_ = view.Render(w, "link_invalid.html", nil)
		return
	}
	var versions []models.ProposalVersion
	h.DB.Where("proposal_id = ?", p.ID).Order("version_number").Find(&versions)
	data := map[string]any{"Proposal": p, "Versions": versions}
	if err := view.Render(w, "client_portal.html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("render error"))
	}
}

// Respond: POST /client/response/{token}
func (h *PortalHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var in services.RespondInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	res, err := h.Svc.Respond(r.PathValue("token"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := map[string]any{"success": true, "message": res.Message}
	if res.ContractGenerated {
		out["contract_generated"] = true
		out["contract_id"] = res.ContractID
	}
	if res.ContractError != "" {
		out["contract_error"] = res.ContractError
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Sign: POST /client/sign/{token}/{document_id}
func (h *PortalHandler) Sign(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Signature string `json:"signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	res, err := h.Svc.SignContract(r.PathValue("token"), r.PathValue("document_id"), in.Signature)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Contrato firmado exitosamente",
		"signature_time": res.SignedAt,
		"document_id":    res.DocumentID,
		"view_url":       res.ViewURL,
		"download_url":   res.DownloadURL,
	})
}

// Documents: GET /client/documents/{token} – artifacts available to the client.
func (h *PortalHandler) Documents(w http.ResponseWriter, r *http.Request) {
	var p models.Proposal
	if err := h.DB.First(&p, "access_token = ?", r.PathValue("token")).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "proposal not found", nil)
		return
	}
	var docs []models.GeneratedDocument
	h.DB.Where("proposal_id = ?", p.ID).Order("created_at desc").Find(&docs)
	items := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		item := map[string]any{
			"id":           d.ID,
			"tipo":         d.Type,
			"version":      d.Version,
			"fecha":        d.CreatedAt,
			"url_ver":      h.BaseURL + "/documents/view/" + d.ID,
			"url_descarga": h.BaseURL + "/documents/download/" + d.ID,
		}
		if d.Type == models.DocContrato {
			item["firmado"] = d.Signed
			item["fecha_firma"] = d.SignedAt
		}
		items = append(items, item)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"propuesta_numero": p.Number, "documentos": items})
}
