package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jarturog/colpabot"
	"github.com/Jarturog/colpabot/match"
	"github.com/Jarturog/colpabot/messages"
	"github.com/Jarturog/colpabot/profile"
)

type handler struct {
	engine   *colpabot.Engine
	profiles *profile.Store
	catalog  *messages.Catalog
}

func newHandler(e *colpabot.Engine, p *profile.Store, c *messages.Catalog) *handler {
	return &handler{engine: e, profiles: p, catalog: c}
}

// POST /chat
//
// Resolves one user message. When a profile store is configured and the
// request names a user, the user's language, event date and miss counter
// come from their profile; the counter is written back after resolution.
func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       string `json:"user_id,omitempty"`
		Text         string `json:"text"`
		Language     string `json:"language,omitempty"`
		Algorithm    string `json:"algorithm,omitempty"`
		PrevQuestion string `json:"prev_question,omitempty"`
		PrevAnswer   string `json:"prev_answer,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	query := colpabot.Query{
		Text:         req.Text,
		Language:     req.Language,
		Algorithm:    match.Kind(req.Algorithm),
		PrevQuestion: req.PrevQuestion,
		PrevAnswer:   req.PrevAnswer,
	}

	var user *profile.Profile
	if h.profiles != nil && req.UserID != "" {
		var err error
		user, err = h.profiles.Get(r.Context(), req.UserID)
		switch {
		case errors.Is(err, profile.ErrNotFound):
			// First contact; resolve with request-level settings only.
		case err != nil:
			writeError(w, http.StatusInternalServerError, "profile lookup failed")
			slog.Error("profile get", "user", req.UserID, "error", err)
			return
		default:
			if query.Language == "" {
				query.Language = user.Language
			}
			query.Reference = user.EventDate
			query.Misses = &user.Misses
		}
	}
	if query.Misses == nil {
		// Anonymous chats still get miss escalation, scoped to the call.
		misses := 0
		query.Misses = &misses
	}

	result, err := h.engine.Resolve(query)
	if err != nil {
		switch {
		case errors.Is(err, colpabot.ErrUnknownLanguage), errors.Is(err, match.ErrUnknownKind):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "resolution failed")
			slog.Error("resolve", "error", err)
		}
		return
	}

	if req.UserID != "" {
		annotate(w, "user", req.UserID)
	}
	annotate(w, "language", query.Language, "outcome", result.Outcome.String())

	if user != nil {
		if err := h.profiles.Put(r.Context(), user); err != nil {
			slog.Error("profile update", "user", user.UserID, "error", err)
		}
	}

	resp := map[string]any{
		"outcome": result.Outcome.String(),
		"reply":   h.reply(query.Language, result),
	}
	if result.Matched() {
		resp["question"] = result.Question
		resp["answer"] = result.Entry.Answer
		if cmd := result.Entry.Command(); cmd != "" {
			resp["command"] = cmd
		}
	}
	if len(result.Candidates) > 0 {
		resp["candidates"] = result.Candidates
	}
	if len(result.Suggestions) > 0 {
		resp["suggestions"] = result.Suggestions
	}
	writeJSON(w, http.StatusOK, resp)
}

// reply renders a human-readable message for the outcome, falling back to
// plain English when the catalog lacks the language or key.
func (h *handler) reply(lang string, result *colpabot.Result) string {
	switch result.Outcome {
	case colpabot.OutcomeMatch:
		return result.Entry.Answer
	case colpabot.OutcomeAmbiguous:
		if h.catalog != nil {
			if s, err := h.catalog.FormatList(lang, "ambiguous", "\n- ", result.Candidates); err == nil {
				return s
			}
		}
		return "Did you mean one of these questions?"
	case colpabot.OutcomeSuggestions:
		if h.catalog != nil {
			if s, err := h.catalog.FormatList(lang, "suggestions", "\n- ", result.Suggestions); err == nil {
				return s
			}
		}
		return "I keep missing you. You could try asking one of these."
	default:
		if h.catalog != nil {
			if s, err := h.catalog.Get(lang, "not_understood"); err == nil {
				return s
			}
		}
		return "Sorry, I did not understand that. Could you rephrase?"
	}
}

// GET /profiles/{id}
func (h *handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if h.profiles == nil {
		writeError(w, http.StatusNotImplemented, "profile store not configured")
		return
	}
	p, err := h.profiles.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, profile.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown user")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "profile lookup failed")
		slog.Error("profile get", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PUT /profiles/{id}
func (h *handler) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	if h.profiles == nil {
		writeError(w, http.StatusNotImplemented, "profile store not configured")
		return
	}

	var req struct {
		Language    string    `json:"language"`
		EventDate   time.Time `json:"event_date"`
		RemindersOn bool      `json:"reminders_on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	p := &profile.Profile{
		UserID:      r.PathValue("id"),
		Language:    req.Language,
		EventDate:   req.EventDate,
		RemindersOn: req.RemindersOn,
	}
	if err := h.profiles.Put(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "profile save failed")
		slog.Error("profile put", "user", p.UserID, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DELETE /profiles/{id}
func (h *handler) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if h.profiles == nil {
		writeError(w, http.StatusNotImplemented, "profile store not configured")
		return
	}
	if err := h.profiles.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, "profile delete failed")
		slog.Error("profile delete", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /languages
func (h *handler) handleLanguages(w http.ResponseWriter, r *http.Request) {
	langs := h.engine.Languages()
	algos := make(map[string][]match.Kind, len(langs))
	for _, lang := range langs {
		kinds, err := h.engine.Algorithms(lang)
		if err != nil {
			continue
		}
		algos[lang] = kinds
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"languages":  langs,
		"algorithms": algos,
	})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
