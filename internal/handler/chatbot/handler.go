package chatbot

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/carechat/internal/config"
	"github.com/zhouzirui/carechat/internal/middleware"
	"github.com/zhouzirui/carechat/internal/model/chat"
	"github.com/zhouzirui/carechat/internal/service/ai"
	"github.com/zhouzirui/carechat/internal/service/conversation"
	"github.com/zhouzirui/carechat/pkg/utils"
)

const (
	PagePath = "/chatbot/"
	SendPath = "/chatbot/send/"

	anonymousKey = "anonymous"
	genericError = "Something went wrong. Please try again."
)

//go:embed templates/chat.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/chat.html"))

// Handler serves the chat page and the send endpoint.
type Handler struct {
	conversations *conversation.Service
	responder     ai.Responder
	cfg           config.ChatbotConfig
	now           func() time.Time
}

// New creates the chatbot handler.
func New(conversations *conversation.Service, responder ai.Responder, cfg config.ChatbotConfig) *Handler {
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 1000
	}
	return &Handler{
		conversations: conversations,
		responder:     responder,
		cfg:           cfg,
		now:           time.Now,
	}
}

// RegisterRoutes registers the chatbot routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get(PagePath, h.handlePage)
	r.Post(SendPath, h.handleSend)
}

type pageData struct {
	SendPath  string
	FieldName string
	Token     string
	MaxLength int
}

// handlePage renders the chat page with the anti-forgery field.
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		SendPath:  SendPath,
		FieldName: h.cfg.FieldName,
		Token:     middleware.TokenFromContext(r.Context()),
		MaxLength: h.cfg.MaxMessageLength,
	}
	if data.FieldName == "" {
		data.FieldName = "csrfmiddlewaretoken"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("[chatbot] render page failed")
	}
}

// handleSend answers one user message.
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload chat.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "Message cannot be empty")
		return
	}
	if utf8.RuneCountInString(message) > h.cfg.MaxMessageLength {
		utils.RespondError(w, http.StatusBadRequest,
			fmt.Sprintf("Message too long. Please limit to %d characters.", h.cfg.MaxMessageLength))
		return
	}

	ctx := r.Context()
	key := middleware.TokenFromContext(ctx)
	if key == "" {
		key = anonymousKey
	}

	if _, err := h.conversations.GetOrCreate(ctx, key); err != nil {
		h.respondFailure(w, err)
		return
	}
	history, err := h.conversations.Recent(ctx, key, h.cfg.HistoryLimit)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	userMsg := chat.NewMessage(message, chat.SenderUser, h.now())
	if err := h.conversations.Append(ctx, key, userMsg); err != nil {
		h.respondFailure(w, err)
		return
	}

	reply, err := h.responder.Reply(ctx, history, message)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	aiMsg := chat.NewMessage(reply, chat.SenderAssistant, h.now())
	if err := h.conversations.Append(ctx, key, aiMsg); err != nil {
		h.respondFailure(w, err)
		return
	}

	authenticated := false
	utils.RespondJSON(w, http.StatusOK, chat.SendResponse{
		Success:         true,
		AIResponse:      reply,
		IsAuthenticated: &authenticated,
		UserMessageID:   userMsg.ID,
		AIMessageID:     aiMsg.ID,
	})
}

func (h *Handler) respondFailure(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("[chatbot] send failed")

	resp := chat.SendResponse{Error: genericError}
	if h.cfg.Debug {
		if debug, mErr := json.Marshal(err.Error()); mErr == nil {
			resp.Debug = debug
		}
	}
	utils.RespondJSON(w, http.StatusInternalServerError, resp)
}
