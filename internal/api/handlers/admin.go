package handlers

import (
	"net/http"
	"time"

	"github.com/jaspreetkaur1509/Agri-bot/internal/audit"
)

type AdminHandler struct {
	auditSvc *audit.Service
}

func NewAdminHandler(auditSvc *audit.Service) *AdminHandler {
	return &AdminHandler{auditSvc: auditSvc}
}

// Usage summarizes LLM spend. start_date and end_date are optional RFC 3339
// bounds.
func (h *AdminHandler) Usage(w http.ResponseWriter, r *http.Request) {
	var startDate, endDate *time.Time

	for name, dst := range map[string]**time.Time{"start_date": &startDate, "end_date": &endDate} {
		s := r.URL.Query().Get(name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
			return
		}
		*dst = &t
	}

	summary, err := h.auditSvc.GetUsageSummary(r.Context(), startDate, endDate)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"usage": summary, "persisted": h.auditSvc.Enabled()})
}
