// Package token resolves the anti-forgery token attached to state-changing
// chat requests. Sources are tried in a fixed order: cookie first, then the
// hidden form field on the chat page.
package token

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/carechat/pkg/dom"
)

const (
	DefaultCookieName = "csrftoken"
	DefaultFieldName  = "csrfmiddlewaretoken"
)

// ErrMissingToken is returned when no provider yields a token.
var ErrMissingToken = errors.New("anti-forgery token not found")

// Provider yields a token, or "" when its source has none.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f ProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static always returns the same token.
type Static string

// Token returns s.
func (s Static) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// CookieProvider reads the token from a cookie jar.
type CookieProvider struct {
	Jar  http.CookieJar
	URL  *url.URL
	Name string
}

// Token returns the cookie value stored for URL, if any.
func (p CookieProvider) Token(context.Context) (string, error) {
	if p.Jar == nil || p.URL == nil {
		return "", nil
	}
	name := p.Name
	if name == "" {
		name = DefaultCookieName
	}
	for _, c := range p.Jar.Cookies(p.URL) {
		if c.Name == name && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", nil
}

// FormFieldProvider fetches the chat page and reads the hidden token field.
type FormFieldProvider struct {
	Fetch func(ctx context.Context) ([]byte, error)
	Name  string
}

// Token returns the hidden field value, or "" when the page has none.
func (p FormFieldProvider) Token(ctx context.Context) (string, error) {
	if p.Fetch == nil {
		return "", nil
	}
	body, err := p.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch chat page: %w", err)
	}
	doc, err := dom.Parse(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	name := p.Name
	if name == "" {
		name = DefaultFieldName
	}
	value, _ := dom.InputValue(doc, name)
	return strings.TrimSpace(value), nil
}

type chain []Provider

// Chain returns a Provider that asks each provider in order and returns the
// first non-empty token. A failing provider is skipped.
func Chain(providers ...Provider) Provider {
	return chain(providers)
}

func (c chain) Token(ctx context.Context) (string, error) {
	for i, p := range c {
		if p == nil {
			continue
		}
		tok, err := p.Token(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Debug().Err(err).Int("provider", i).Msg("[token] provider failed, trying next")
			continue
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", ErrMissingToken
}
