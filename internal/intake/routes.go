package intake

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/casebrief/internal/collector"
)

// RegisterRoutes mounts the intake API routes.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/intake", func(r chi.Router) {
		r.Get("/slots", handleSlots(svc))
		r.Post("/sessions", handleStart(svc))
		r.Get("/sessions", handleList(svc))
		r.Get("/sessions/{id}", handleGetSession(svc))
		r.Post("/sessions/{id}/submit", handleSubmit(svc))
		r.Get("/sessions/{id}/context", handleContext(svc))
		r.Get("/sessions/{id}/messages", handleMessages(svc))
		r.Post("/sessions/{id}/experts", handleExperts(svc))
		r.Get("/sessions/{id}/experts", handlePanel(svc))
	})
}

type startRequest struct {
	UserID string `json:"user_id"`
}

type submitRequest struct {
	Text string `json:"text"`
	Slot string `json:"slot"`
}

func handleSlots(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Slots())
	}
}

func handleStart(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		// An empty body starts an anonymous session.
		_ = json.NewDecoder(r.Body).Decode(&req)

		sess, err := svc.Start(r.Context(), req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sess)
	}
}

func handleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		sessions, err := svc.Sessions(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if sessions == nil {
			sessions = []Session{}
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func handleGetSession(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.Session(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func handleSubmit(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		resp, err := svc.Submit(r.Context(), chi.URLParam(r, "id"), req.Text, req.Slot)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleContext(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collected, err := svc.Context(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, collected)
	}
}

func handleMessages(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := svc.Messages(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if messages == nil {
			messages = []Message{}
		}
		writeJSON(w, http.StatusOK, messages)
	}
}

func handleExperts(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		panel, err := svc.SelectExperts(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, panel)
	}
}

func handlePanel(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		panel, err := svc.Panel(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, panel)
	}
}

// writeError maps service errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrNoPanel):
		status = http.StatusNotFound
	case errors.Is(err, collector.ErrUnknownSlot):
		status = http.StatusBadRequest
	case errors.Is(err, ErrIncomplete):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
