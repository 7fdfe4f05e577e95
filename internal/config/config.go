package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config groups every setting of the chat client and the development backend.
type Config struct {
	Server  ServerConfig
	Client  ClientConfig
	Chatbot ChatbotConfig
	AI      AIConfig
	Log     LogConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	chatbot, err := loadChatbotConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Client: client, Chatbot: chatbot, AI: ai, Log: logCfg}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// loadServerConfig resolves the listen address.
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are taken as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ClientConfig describes how the chat client reaches the backend.
type ClientConfig struct {
	BaseURL      string
	SendPath     string
	PagePath     string
	CookieName   string
	FieldName    string
	Token        string
	Timeout      time.Duration
	AllowOverlap bool
}

func loadClientConfig() (ClientConfig, error) {
	timeout, err := parseOptionalIntEnv("CHAT_TIMEOUT")
	if err != nil {
		return ClientConfig{}, err
	}
	var timeoutDur time.Duration
	if timeout != nil {
		if *timeout < 0 {
			return ClientConfig{}, fmt.Errorf("invalid CHAT_TIMEOUT value %d: must not be negative", *timeout)
		}
		timeoutDur = time.Duration(*timeout) * time.Second
	}

	allowOverlap, err := parseBoolEnv("CHAT_ALLOW_OVERLAP", false)
	if err != nil {
		return ClientConfig{}, err
	}

	return ClientConfig{
		BaseURL:      getEnvOrDefault("CHAT_BASE_URL", "http://localhost:8080"),
		SendPath:     getEnvOrDefault("CHAT_SEND_PATH", "/chatbot/send/"),
		PagePath:     getEnvOrDefault("CHAT_PAGE_PATH", "/chatbot/"),
		CookieName:   getEnvOrDefault("CSRF_COOKIE_NAME", "csrftoken"),
		FieldName:    getEnvOrDefault("CSRF_FIELD_NAME", "csrfmiddlewaretoken"),
		Token:        strings.TrimSpace(os.Getenv("CSRF_TOKEN")),
		Timeout:      timeoutDur,
		AllowOverlap: allowOverlap,
	}, nil
}

// ChatbotConfig tunes the development backend's send endpoint.
type ChatbotConfig struct {
	MaxMessageLength int
	HistoryLimit     int
	Debug            bool
	CookieName       string
	FieldName        string
}

func loadChatbotConfig() (ChatbotConfig, error) {
	maxLen := 1000
	if override, err := parseOptionalIntEnv("CHATBOT_MAX_MESSAGE_LENGTH"); err != nil {
		return ChatbotConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ChatbotConfig{}, fmt.Errorf("invalid CHATBOT_MAX_MESSAGE_LENGTH value %d: must be positive", *override)
		}
		maxLen = *override
	}

	history := 10
	if override, err := parseOptionalIntEnv("CHATBOT_HISTORY_LIMIT"); err != nil {
		return ChatbotConfig{}, err
	} else if override != nil {
		if *override < 1 {
			history = 1
		} else {
			history = *override
		}
	}

	debug, err := parseBoolEnv("CHATBOT_DEBUG", false)
	if err != nil {
		return ChatbotConfig{}, err
	}

	return ChatbotConfig{
		MaxMessageLength: maxLen,
		HistoryLimit:     history,
		Debug:            debug,
		CookieName:       getEnvOrDefault("CSRF_COOKIE_NAME", "csrftoken"),
		FieldName:        getEnvOrDefault("CSRF_FIELD_NAME", "csrfmiddlewaretoken"),
	}, nil
}

// LogConfig controls the zerolog setup.
type LogConfig struct {
	Level  string
	Pretty bool
}

func loadLogConfig() (LogConfig, error) {
	pretty, err := parseBoolEnv("LOG_PRETTY", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Pretty: pretty,
	}, nil
}

// AIConfig describes the Ark chat model used by the backend responder.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether a model and credentials are configured.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the Ark chat model described by c.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark model is not configured: set Model and ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
