package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/acmetrans/mgcp/internal/auth"
	"github.com/acmetrans/mgcp/internal/httpx"
	"github.com/acmetrans/mgcp/internal/models"
	"github.com/acmetrans/mgcp/internal/validation"
)

// CostHandler registers monthly overhead figures; their trailing 30-day
// average feeds the indirect cost applied to new proposals.
type CostHandler struct {
	DB *gorm.DB
}

func NewCostHandler(db *gorm.DB) *CostHandler {
	return &CostHandler{DB: db}
}

// RegisterIndirect: POST /costs/indirect
func (h *CostHandler) RegisterIndirect(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Month       int     `json:"month"`
		Year        int     `json:"year"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.RangeInt("month", in.Month, 1, 12, v)
	validation.RangeInt("year", in.Year, 2000, 2100, v)
	validation.PositiveFloat("amount", in.Amount, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	user, _ := auth.AdminFromContext(r.Context())
	record := models.IndirectCostRecord{
		Month:       in.Month,
		Year:        in.Year,
		Amount:      in.Amount,
		Description: in.Description,
		User:        user,
	}
	if err := h.DB.Create(&record).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_register_cost", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "cost_id": record.ID})
}
