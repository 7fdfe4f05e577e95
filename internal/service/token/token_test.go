package token

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"
)

func jarWith(t *testing.T, u *url.URL, cookies ...*http.Cookie) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New err: %v", err)
	}
	jar.SetCookies(u, cookies)
	return jar
}

func TestChainPrefersCookie(t *testing.T) {
	u, _ := url.Parse("http://localhost:8080/chatbot/")
	jar := jarWith(t, u, &http.Cookie{Name: "csrftoken", Value: "from-cookie", Path: "/"})

	fetched := false
	form := FormFieldProvider{Fetch: func(context.Context) ([]byte, error) {
		fetched = true
		return []byte(`<input name="csrfmiddlewaretoken" value="from-form">`), nil
	}}

	tok, err := Chain(CookieProvider{Jar: jar, URL: u}, form).Token(context.Background())
	if err != nil {
		t.Fatalf("Token err: %v", err)
	}
	if tok != "from-cookie" {
		t.Fatalf("expected cookie token, got %q", tok)
	}
	if fetched {
		t.Fatal("form provider should not run when the cookie is present")
	}
}

func TestChainFallsBackToFormField(t *testing.T) {
	u, _ := url.Parse("http://localhost:8080/chatbot/")
	jar := jarWith(t, u)
	form := FormFieldProvider{Fetch: func(context.Context) ([]byte, error) {
		return []byte(`<form><input type="hidden" name="csrfmiddlewaretoken" value="from-form"></form>`), nil
	}}

	tok, err := Chain(CookieProvider{Jar: jar, URL: u}, form).Token(context.Background())
	if err != nil {
		t.Fatalf("Token err: %v", err)
	}
	if tok != "from-form" {
		t.Fatalf("expected form token, got %q", tok)
	}
}

func TestChainSkipsFailingProvider(t *testing.T) {
	failing := ProviderFunc(func(context.Context) (string, error) {
		return "", errors.New("boom")
	})

	tok, err := Chain(failing, Static("fixed")).Token(context.Background())
	if err != nil {
		t.Fatalf("Token err: %v", err)
	}
	if tok != "fixed" {
		t.Fatalf("expected fixed, got %q", tok)
	}
}

func TestChainMissingToken(t *testing.T) {
	form := FormFieldProvider{Fetch: func(context.Context) ([]byte, error) {
		return []byte(`<html><body>no token here</body></html>`), nil
	}}

	_, err := Chain(CookieProvider{}, form, Static("  ")).Token(context.Background())
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestCookieProviderCustomName(t *testing.T) {
	u, _ := url.Parse("http://example.test/")
	jar := jarWith(t, u, &http.Cookie{Name: "xsrf", Value: "abc", Path: "/"})

	tok, err := CookieProvider{Jar: jar, URL: u, Name: "xsrf"}.Token(context.Background())
	if err != nil || tok != "abc" {
		t.Fatalf("expected abc, got %q (err=%v)", tok, err)
	}
}
