package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/openclaw/qrcards/card"
	"github.com/openclaw/qrcards/store"
)

type createCardRequest struct {
	StudentID    string `json:"studentId"`
	AssignmentID string `json:"assignmentId"`
}

type cardResponse struct {
	Path    string `json:"path"`
	Payload string `json:"payload"`
	Kind    string `json:"kind"`
	QRPNG   string `json:"qr_png,omitempty"`
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.Gen.Generate(strings.TrimSpace(req.StudentID), strings.TrimSpace(req.AssignmentID))
	if err != nil {
		if errors.Is(err, card.ErrEmptyStudentID) || errors.Is(err, card.ErrUnsafeID) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.Log.Error("generate card failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := cardResponse{
		Path:    res.Path,
		Payload: res.JSON,
		Kind:    string(res.Payload.Kind()),
	}
	if png, err := s.Gen.Render(res.Payload); err == nil {
		resp.QRPNG = base64.StdEncoding.EncodeToString(png)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleCardQR renders a card PNG in memory; nothing is written to disk.
func (s *Server) handleCardQR(w http.ResponseWriter, r *http.Request) {
	p, err := card.NewPayload(chi.URLParam(r, "studentID"), r.URL.Query().Get("assignment"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	png, err := s.Gen.Render(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="`+card.Filename(p.StudentID, p.AssignmentID)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	cards, err := s.Store.ListCards(queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cards == nil {
		cards = []store.CardRecord{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleStudentCards(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	cards, err := s.Store.CardsForStudent(chi.URLParam(r, "studentID"), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cards == nil {
		cards = []store.CardRecord{}
	}
	writeJSON(w, http.StatusOK, cards)
}
