package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/josinaldojr/talkdoc-rag/internal/assistant"
	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

const maxUploadSize = 32 << 20

var errEmptyUpload = errors.New("empty upload")

// Answerer is the ungated pipeline behind POST /api/chat.
type Answerer interface {
	AnswerQuery(ctx context.Context, query string) (string, error)
}

type Handler struct {
	answerer  Answerer
	assistant *assistant.Assistant
	gated     bool
}

// NewHandler serves /api/chat straight from answerer unless gated is set,
// in which case it goes through the text adapter like /api/chat/text.
func NewHandler(answerer Answerer, a *assistant.Assistant, gated bool) *Handler {
	return &Handler{answerer: answerer, assistant: a, gated: gated}
}

// ReplyResponse is the payload of the per-modality endpoints.
type ReplyResponse struct {
	Response    string `json:"response"`
	Success     bool   `json:"success"`
	Query       string `json:"query"`
	Language    string `json:"language"`
	Refused     bool   `json:"refused"`
	Transcript  string `json:"transcript,omitempty"`
	Description string `json:"description,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Success *bool  `json:"success,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	message, ok := decodeMessage(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No message provided"})
		return
	}

	var (
		answer string
		err    error
	)
	if h.gated {
		var reply *assistant.Reply
		if reply, err = h.assistant.AskText(r.Context(), message); err == nil {
			answer = reply.Answer
		}
	} else {
		answer, err = h.answerer.AnswerQuery(r.Context(), message)
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, rag.ChatResponse{Response: answer, Success: true})
}

func (h *Handler) ChatText(w http.ResponseWriter, r *http.Request) {
	message, ok := decodeMessage(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No message provided"})
		return
	}

	reply, err := h.assistant.AskText(r.Context(), message)
	h.reply(w, r, reply, err)
}

func (h *Handler) ChatVoice(w http.ResponseWriter, r *http.Request) {
	if !h.assistant.HasVoice() {
		h.fail(w, r, http.StatusServiceUnavailable, assistant.ErrVoiceUnavailable)
		return
	}

	audio, mimeType, err := readUpload(w, r, "audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No audio provided"})
		return
	}

	reply, err := h.assistant.AskVoice(r.Context(), audio, mimeType)
	h.reply(w, r, reply, err)
}

func (h *Handler) ChatImage(w http.ResponseWriter, r *http.Request) {
	if !h.assistant.HasImage() {
		h.fail(w, r, http.StatusServiceUnavailable, assistant.ErrImageUnavailable)
		return
	}

	image, mimeType, err := readUpload(w, r, "image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No image provided"})
		return
	}

	reply, err := h.assistant.AskImage(r.Context(), image, mimeType, r.FormValue("question"))
	h.reply(w, r, reply, err)
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, reply *assistant.Reply, err error) {
	switch {
	case errors.Is(err, assistant.ErrEmptyInput):
		h.fail(w, r, http.StatusBadRequest, err)
		return
	case errors.Is(err, assistant.ErrVoiceUnavailable), errors.Is(err, assistant.ErrImageUnavailable):
		h.fail(w, r, http.StatusServiceUnavailable, err)
		return
	case err != nil:
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, ReplyResponse{
		Response:    reply.Answer,
		Success:     true,
		Query:       reply.Query,
		Language:    reply.Language,
		Refused:     reply.Refused,
		Transcript:  reply.Transcript,
		Description: reply.Description,
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	log.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	failed := false
	writeJSON(w, status, errorResponse{Error: err.Error(), Success: &failed})
}

// decodeMessage reports false for unreadable bodies and blank messages.
func decodeMessage(r *http.Request) (string, bool) {
	var req rag.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", false
	}
	msg := strings.TrimSpace(req.Message)
	return msg, msg != ""
}

func readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, "", err
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errEmptyUpload
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
