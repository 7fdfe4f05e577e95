// Package sanitize turns untrusted chat text into markup that is safe to
// place inside a transcript fragment.
//
// Allow-list: Text escapes every markup-significant character and the only
// element it ever produces is <br>, one per line break. Fragment is a second
// gate for assembled message fragments and keeps only the handful of
// elements the renderer itself writes.
package sanitize

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var textReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&#34;",
	"'", "&#39;",
	"\r\n", "<br>",
	"\n", "<br>",
)

var fragmentPolicy = newFragmentPolicy()

func newFragmentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "span", "strong", "br")
	p.AllowAttrs("class").OnElements("div", "span")
	return p
}

// Text escapes s and converts newlines into <br>.
func Text(s string) string {
	return textReplacer.Replace(s)
}

// Fragment strips anything outside the renderer's element allow-list.
func Fragment(html string) string {
	return fragmentPolicy.Sanitize(html)
}

// Terminal drops C0 and C1 control characters except newline and tab, so
// text cannot carry escape sequences to a terminal.
func Terminal(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
