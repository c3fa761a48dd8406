package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fin-agents/internal/app"
	"fin-agents/internal/httputil"
	"fin-agents/internal/session"
)

type sessionResponse struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	HasStatement bool      `json:"has_statement"`
	ChatReady    bool      `json:"chat_ready"`
	Turns        int       `json:"turns"`
}

func createSessionHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := deps.Sessions.Create()
		deps.Log.Info("session created", "session_id", sess.ID)
		httputil.WriteJSON(w, http.StatusCreated, map[string]any{
			"session_id": sess.ID,
		})
	}
}

func getSessionHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(deps, w, r)
		if !ok {
			return
		}
		lastAccessed, _ := deps.Sessions.LastAccessed(sess.ID)

		sess.Lock()
		resp := sessionResponse{
			SessionID:    sess.ID,
			CreatedAt:    sess.CreatedAt,
			LastAccessed: lastAccessed,
			HasStatement: sess.Report != nil,
			ChatReady:    sess.ChatReady(),
			Turns:        len(sess.Transcript),
		}
		sess.Unlock()

		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

func deleteSessionHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := deps.Sessions.Delete(id); err != nil {
			httputil.Fail(deps.Log.With("session_id", id), w, "session not found", err, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// loadSession resolves the {id} path parameter, writing a 404 when unknown.
func loadSession(deps app.Deps, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := deps.Sessions.Get(id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrNotFound) {
			status = http.StatusNotFound
		}
		httputil.Fail(deps.Log.With("session_id", id), w, "session not found", err, status)
		return nil, false
	}
	return sess, true
}
