package handlers

import (
	"net/http"

	"github.com/jaspreetkaur1509/Agri-bot/internal/prompt"
)

type TipsHandler struct {
	variant prompt.Variant
}

func NewTipsHandler(variant prompt.Variant) *TipsHandler {
	return &TipsHandler{variant: variant}
}

// Tips lists the static farming tips, the query types the chat accepts and
// the active variant.
func (h *TipsHandler) Tips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tips":        prompt.FarmingTips,
		"query_types": prompt.QueryTypes,
		"variant":     h.variant,
	})
}
