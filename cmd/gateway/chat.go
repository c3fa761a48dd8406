package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"fin-agents/internal/app"
	"fin-agents/internal/httputil"
	"fin-agents/internal/narrative"
)

type sendMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

func startChatHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(deps, w, r)
		if !ok {
			return
		}
		log := deps.Log.With("session_id", sess.ID)

		sess.Lock()
		defer sess.Unlock()

		if !sess.ChatReady() {
			cred, err := deps.Narrative.Credential()
			if err != nil {
				httputil.Fail(log, w, "chat unavailable: API key '"+deps.Narrative.SecretName+"' not found", err, http.StatusServiceUnavailable)
				return
			}
			if _, err := deps.Narrative.CreateConversation(r.Context(), sess, cred); err != nil {
				httputil.Fail(log, w, "chat unavailable: failed to initialize chat session, check the API key", err, http.StatusServiceUnavailable)
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"ready":      true,
			"transcript": sess.TranscriptCopy(),
		})
	}
}

func sendMessageHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(deps, w, r)
		if !ok {
			return
		}
		log := deps.Log.With("session_id", sess.ID)

		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(log, w, err)
			return
		}

		sess.Lock()
		defer sess.Unlock()

		reply, err := deps.Narrative.Send(r.Context(), sess, req.Text)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, narrative.ErrChatNotReady) {
				status = http.StatusConflict
			}
			httputil.Fail(log, w, err.Error(), err, status)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"reply":      reply,
			"transcript": sess.TranscriptCopy(),
		})
	}
}

func transcriptHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(deps, w, r)
		if !ok {
			return
		}
		sess.Lock()
		transcript := sess.TranscriptCopy()
		ready := sess.ChatReady()
		sess.Unlock()

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"ready":      ready,
			"transcript": transcript,
		})
	}
}
