package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/carechat/internal/config"
	"github.com/zhouzirui/carechat/internal/handler/chatbot"
	middlewarePkg "github.com/zhouzirui/carechat/internal/middleware"
	"github.com/zhouzirui/carechat/internal/service/ai"
	"github.com/zhouzirui/carechat/internal/service/conversation"
	"github.com/zhouzirui/carechat/pkg/utils"
)

// NewRouter wires HTTP routes to the chatbot services.
func NewRouter(cfg config.ChatbotConfig, conversations *conversation.Service, responder ai.Responder) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	chatbotHandler := chatbot.New(conversations, responder, cfg)
	csrf := middlewarePkg.NewCSRF(cookieName(cfg), fieldName(cfg))

	r.Group(func(cr chi.Router) {
		cr.Use(csrf.Handler)
		chatbotHandler.RegisterRoutes(cr)
	})

	return r
}

func cookieName(cfg config.ChatbotConfig) string {
	if cfg.CookieName == "" {
		return "csrftoken"
	}
	return cfg.CookieName
}

func fieldName(cfg config.ChatbotConfig) string {
	if cfg.FieldName == "" {
		return "csrfmiddlewaretoken"
	}
	return cfg.FieldName
}
