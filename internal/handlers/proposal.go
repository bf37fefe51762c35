package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/acmetrans/mgcp/internal/auth"
	"github.com/acmetrans/mgcp/internal/httpx"
	"github.com/acmetrans/mgcp/internal/models"
	"github.com/acmetrans/mgcp/internal/services"
	"github.com/acmetrans/mgcp/internal/view"
)

// ProposalHandler exposes the administrative lifecycle endpoints. Listing and
// detail read straight through GORM; every mutation goes through the service.
type ProposalHandler struct {
	DB  *gorm.DB
	Svc *services.ProposalService
}

func NewProposalHandler(db *gorm.DB, svc *services.ProposalService) *ProposalHandler {
	return &ProposalHandler{DB: db, Svc: svc}
}

// List: GET /proposals – HTML or JSON, filterable by estado and cliente_id.
func (h *ProposalHandler) List(w http.ResponseWriter, r *http.Request) {
	dbq := h.DB.Preload("Client")
	if estado := r.URL.Query().Get("estado"); estado != "" {
		dbq = dbq.Where("state = ?", estado)
	}
	if clientID := r.URL.Query().Get("cliente_id"); clientID != "" {
		dbq = dbq.Where("client_id = ?", clientID)
	}
	var proposals []models.Proposal
	if err := dbq.Order("created_at desc").Find(&proposals).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_proposals", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": proposals, "total": len(proposals)})
		return
	}
	var clients []models.Client
	h.DB.Order("name").Find(&clients)
	_ = view.Render(w, "proposals.html", map[string]any{"Proposals": proposals, "Clients": clients})
}

// Create: POST /proposals – JSON body.
func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if in.DirectorUser == "" {
		if admin, ok := auth.AdminFromContext(r.Context()); ok {
			in.DirectorUser = admin
		}
	}
	p, err := h.Svc.Create(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":         true,
		"proposal_id":     p.ID,
		"proposal_number": p.Number,
		"final_price":     p.FinalPrice,
	})
}

// Detail: GET /proposals/{id} – proposal with its ledger, responses and documents.
func (h *ProposalHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var p models.Proposal
	err := h.DB.Preload("Client").
		Preload("Versions", func(db *gorm.DB) *gorm.DB { return db.Order("version_number") }).
		Preload("Responses", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
		First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "proposal not found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_proposal", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Send: POST /proposals/{id}/send
func (h *ProposalHandler) Send(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.Send(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"access_link":     res.AccessLink,
		"expiration_time": res.ExpiresAt.Format(time.RFC3339),
		"document_id":     res.DocumentID,
	})
}

// Modify: POST /proposals/{id}/modify
func (h *ProposalHandler) Modify(w http.ResponseWriter, r *http.Request) {
	var in services.ModifyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if in.DirectorUser == "" {
		if admin, ok := auth.AdminFromContext(r.Context()); ok {
			in.DirectorUser = admin
		}
	}
	res, err := h.Svc.Modify(r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"new_version": res.NewVersion,
		"final_price": res.FinalPrice,
		"changes":     res.Changes,
	})
}

// Stats: GET /api/proposals/stats – state counts plus signed contracts.
func (h *ProposalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]int64{}
	var total int64
	h.DB.Model(&models.Proposal{}).Count(&total)
	stats["total"] = total
	for key, state := range map[string]string{
		"pregeneradas": models.StatePregenerada,
		"enviadas":     models.StateEnviada,
		"aceptadas":    models.StateAceptada,
		"rechazadas":   models.StateRechazada,
		"revision":     models.StateRevision,
	} {
		var n int64
		h.DB.Model(&models.Proposal{}).Where("state = ?", state).Count(&n)
		stats[key] = n
	}
	var signed int64
	h.DB.Model(&models.GeneratedDocument{}).Where("type = ? AND signed = ?", models.DocContrato, true).Count(&signed)
	stats["contratos_firmados"] = signed
	httpx.JSON(w, http.StatusOK, stats)
}

// Dashboard: GET / and GET /dashboard – HTML overview for the director.
func (h *ProposalHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int64{}
	for key, state := range map[string]string{
		"Pregeneradas": models.StatePregenerada,
		"Enviadas":     models.StateEnviada,
		"Aceptadas":    models.StateAceptada,
		"Revision":     models.StateRevision,
	} {
		var n int64
		h.DB.Model(&models.Proposal{}).Where("state = ?", state).Count(&n)
		counts[key] = n
	}
	var total int64
	h.DB.Model(&models.Proposal{}).Count(&total)
	var recent []models.Proposal
	h.DB.Preload("Client").Order("created_at desc").Limit(10).Find(&recent)
	admin, _ := auth.AdminFromContext(r.Context())
	data := map[string]any{
		"Stats":     counts,
		"Total":     total,
		"Proposals": recent,
		"Admin":     admin,
		"Year":      time.Now().Year(),
	}
	if err := view.Render(w, "dashboard.html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("render error"))
	}
}
