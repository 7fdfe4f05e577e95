// Package dom holds small helpers over golang.org/x/net/html for reading
// the chat page template.
package dom

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// Parse reads an HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// FindByID returns the first element whose id attribute equals id.
func FindByID(root *html.Node, id string) *html.Node {
	return find(root, func(n *html.Node) bool {
		v, ok := Attr(n, "id")
		return ok && v == id
	})
}

// InputValue returns the value of the first <input> with the given name.
func InputValue(root *html.Node, name string) (string, bool) {
	n := find(root, func(n *html.Node) bool {
		if n.Data != "input" {
			return false
		}
		v, ok := Attr(n, "name")
		return ok && v == name
	})
	if n == nil {
		return "", false
	}
	return Attr(n, "value")
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}
