// Package client performs the chat send operation against the chatbot
// backend: one JSON POST per user message, with the anti-forgery token
// header, and a typed error for every way the exchange can fail.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/carechat/internal/model/chat"
	"github.com/zhouzirui/carechat/internal/service/token"
)

const (
	DefaultSendPath = "/chatbot/send/"
	DefaultPagePath = "/chatbot/"

	csrfHeader = "X-CSRFToken"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	SendPath   string
	PagePath   string
	CookieName string
	FieldName  string
	// StaticToken, when set, is tried before the cookie and the form field.
	StaticToken string
	// Timeout of zero means requests are bounded only by the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Reply is a successful send result.
type Reply struct {
	Text            string
	Debug           json.RawMessage
	IsAuthenticated bool
	UserMessageID   string
	AIMessageID     string
}

// Client talks to the chatbot send endpoint.
type Client struct {
	rc       *resty.Client
	sendPath string
	pagePath string
	tokens   token.Provider
}

// New builds a Client with the default token chain: static override (if
// any), then the csrf cookie, then the hidden field on the chat page.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	if rc.GetClient().Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		rc.SetCookieJar(jar)
	}
	rc.SetBaseURL(base.String())
	rc.SetLogger(restyLogger{logger: log.Logger})
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}

	c := &Client{
		rc:       rc,
		sendPath: orDefault(opts.SendPath, DefaultSendPath),
		pagePath: orDefault(opts.PagePath, DefaultPagePath),
	}

	pageURL := base.ResolveReference(&url.URL{Path: c.pagePath})
	providers := make([]token.Provider, 0, 3)
	if opts.StaticToken != "" {
		providers = append(providers, token.Static(opts.StaticToken))
	}
	providers = append(providers,
		token.CookieProvider{Jar: rc.GetClient().Jar, URL: pageURL, Name: orDefault(opts.CookieName, token.DefaultCookieName)},
		token.FormFieldProvider{Fetch: c.fetchPage, Name: orDefault(opts.FieldName, token.DefaultFieldName)},
	)
	c.tokens = token.Chain(providers...)

	return c, nil
}

// WithTokenProvider replaces the token chain.
func (c *Client) WithTokenProvider(p token.Provider) *Client {
	c.tokens = p
	return c
}

// Send posts message and interprets the response envelope.
func (c *Client) Send(ctx context.Context, message string) (Reply, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, token.ErrMissingToken) {
			return Reply{}, err
		}
		return Reply{}, &TransportError{Err: err}
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(csrfHeader, tok).
		SetBody(chat.SendRequest{Message: message}).
		Post(c.sendPath)
	if err != nil {
		return Reply{}, &TransportError{Err: err}
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		statusErr := &StatusError{Code: resp.StatusCode(), Status: resp.Status()}
		var env chat.SendResponse
		if json.Unmarshal(body, &env) == nil {
			statusErr.ServerError = env.Error
		}
		return Reply{}, statusErr
	}

	return decodeEnvelope(body)
}

func decodeEnvelope(body []byte) (Reply, error) {
	var probe struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return Reply{}, &MalformedResponseError{Body: body, Err: err}
	}
	if probe.Success == nil {
		return Reply{}, &MalformedResponseError{Body: body, Err: errors.New("missing success field")}
	}

	var env chat.SendResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return Reply{}, &MalformedResponseError{Body: body, Err: err}
	}
	if !env.Success {
		return Reply{}, &ApplicationError{Message: env.Error, Debug: env.Debug}
	}

	reply := Reply{
		Text:          env.AIResponse,
		Debug:         env.Debug,
		UserMessageID: env.UserMessageID,
		AIMessageID:   env.AIMessageID,
	}
	if env.IsAuthenticated != nil {
		reply.IsAuthenticated = *env.IsAuthenticated
	}
	return reply, nil
}

func (c *Client) fetchPage(ctx context.Context) ([]byte, error) {
	resp, err := c.rc.R().SetContext(ctx).Get(c.pagePath)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("chat page returned %s", resp.Status())
	}
	return resp.Body(), nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// restyLogger routes resty's internal messages through zerolog.
type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msgf("[resty] "+format, v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msgf("[resty] "+format, v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Msgf("[resty] "+format, v...)
}
