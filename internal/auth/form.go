package auth

import (
	"fmt"
	"io"
	"net/url"

	"golang.org/x/net/html"
)

// FormParser extracts the named input fields of one form from a login
// page. The session manager only depends on this contract, not on the
// parsing technology.
type FormParser interface {
	Fields(page io.Reader, formID string) (url.Values, error)
}

// HTMLFormParser walks the page's parse tree and collects every named
// input inside the form with the given id, hidden CSRF fields included.
type HTMLFormParser struct{}

func (HTMLFormParser) Fields(page io.Reader, formID string) (url.Values, error) {
	root, err := html.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoginFormParse, err)
	}
	form := findForm(root, formID)
	if form == nil {
		return nil, fmt.Errorf("%w: no form with id %q", ErrLoginFormParse, formID)
	}
	fields := url.Values{}
	collectInputs(form, fields)
	return fields, nil
}

func findForm(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == "form" && attr(n, "id") == id {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if form := findForm(child, id); form != nil {
			return form
		}
	}
	return nil
}

func collectInputs(n *html.Node, fields url.Values) {
	if n.Type == html.ElementNode && n.Data == "input" {
		if name := attr(n, "name"); name != "" {
			fields.Set(name, attr(n, "value"))
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectInputs(child, fields)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
