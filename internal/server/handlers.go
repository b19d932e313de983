package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"ibt_connect/internal/identity"
	"ibt_connect/internal/lead"
	"ibt_connect/internal/logger"
)

type turnRequest struct {
	Message      string `json:"message"`
	Voice        bool   `json:"voice"`
	SessionToken string `json:"session_token"`
}

type turnResponse struct {
	Reply    string `json:"reply"`
	AudioRef string `json:"audio_ref,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type leadRequest struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Location string `json:"location,omitempty"`
}

type leadBody struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

type leadResponse struct {
	Status  string    `json:"status"`
	Next    string    `json:"next,omitempty"`
	Message string    `json:"message,omitempty"`
	Lead    *leadBody `json:"lead,omitempty"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, "<h1>IBT Connect relay is running</h1>")
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no message provided"})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no message provided"})
		return
	}

	key := s.resolver.Key(identity.Request{
		SessionToken: req.SessionToken,
		RemoteAddr:   r.RemoteAddr,
		ClientHint:   r.UserAgent(),
	})

	res, err := s.turns.HandleTurn(r.Context(), key, message, req.Voice)
	if err != nil {
		logger.Error().Err(err).Str("identity", key).Msg("turn failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to process message"})
		return
	}

	writeJSON(w, http.StatusOK, turnResponse{Reply: res.Reply, AudioRef: res.AudioRef})
}

func (s *Server) handleLead(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	res := lead.EvaluateIntake(time.Now(), lead.Fields{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Location: req.Location,
	})

	if res.Status == lead.StatusIncomplete {
		writeJSON(w, http.StatusOK, leadResponse{Status: string(res.Status), Next: res.Next})
		return
	}

	// Persist best-effort: the visitor-facing contract is that a
	// complete submission always succeeds.
	if err := s.sink.Save(r.Context(), *res.Record); err != nil {
		logger.Error().Err(err).Msg("lead sink failed, record dropped")
	}

	writeJSON(w, http.StatusOK, leadResponse{
		Status:  string(res.Status),
		Message: res.Message,
		Lead: &leadBody{
			Name:     res.Record.Name,
			Phone:    res.Record.Phone,
			Email:    res.Record.Email,
			Location: res.Record.Location,
		},
	})
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
