package middleware

import (
	"context"
	"crypto/subtle"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/carechat/pkg/utils"
)

// CSRFHeader carries the anti-forgery token on unsafe requests.
const CSRFHeader = "X-CSRFToken"

type csrfKey struct{}

// CSRF implements the double-submit cookie check: the token in the cookie
// must be echoed back in the header or in the form field.
type CSRF struct {
	CookieName string
	FieldName  string
}

// NewCSRF returns the middleware with the given cookie and field names.
func NewCSRF(cookieName, fieldName string) *CSRF {
	return &CSRF{CookieName: cookieName, FieldName: fieldName}
}

// TokenFromContext returns the token the middleware resolved for the request.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(csrfKey{}).(string)
	return tok
}

// Handler wraps next with the CSRF check.
func (m *CSRF) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookieToken := ""
		if c, err := r.Cookie(m.CookieName); err == nil {
			cookieToken = strings.TrimSpace(c.Value)
		}

		if isSafeMethod(r.Method) {
			if cookieToken == "" {
				cookieToken = strings.ReplaceAll(uuid.NewString(), "-", "")
				http.SetCookie(w, &http.Cookie{
					Name:     m.CookieName,
					Value:    cookieToken,
					Path:     "/",
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, cookieToken)))
			return
		}

		submitted := strings.TrimSpace(r.Header.Get(CSRFHeader))
		if submitted == "" && isFormRequest(r) {
			submitted = strings.TrimSpace(r.PostFormValue(m.FieldName))
		}

		if cookieToken == "" || submitted == "" ||
			subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) != 1 {
			log.Warn().Str("path", r.URL.Path).Bool("cookie", cookieToken != "").Msg("[csrf] verification failed")
			utils.RespondError(w, http.StatusForbidden, "CSRF verification failed")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, cookieToken)))
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func isFormRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}
