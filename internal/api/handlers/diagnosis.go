package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/jaspreetkaur1509/Agri-bot/internal/audit"
	"github.com/jaspreetkaur1509/Agri-bot/internal/diagnosis"
)

type DiagnosisHandler struct {
	svc      *diagnosis.Service
	audit    AdvisoryLogger
	maxBytes int64
}

func NewDiagnosisHandler(svc *diagnosis.Service, al AdvisoryLogger, maxBytes int64) *DiagnosisHandler {
	return &DiagnosisHandler{svc: svc, audit: al, maxBytes: maxBytes}
}

// Diagnose accepts a multipart form with an "image" file and an optional
// "speak" flag.
func (h *DiagnosisHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r, "image", h.maxBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.Diagnose(r.Context(), diagnosis.Image{Data: up.Data, MimeType: up.ContentType, Filename: up.Filename}, formBool(r, "speak"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if h.audit != nil && !res.Cached {
		sum := sha256.Sum256(up.Data)
		entry := audit.AdvisoryEntry{
			Kind:   audit.KindDiagnosis,
			Input:  map[string]interface{}{"filename": res.Filename, "bytes": len(up.Data), "sha256": hex.EncodeToString(sum[:]), "model": res.Model},
			Result: res.Text,
		}
		if err := h.audit.LogAdvisory(r.Context(), entry); err != nil {
			slog.Warn("diagnosis audit failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, res)
}
