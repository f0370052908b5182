package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"skyscraper-platform/internal/models"
)

// Hook is the javascript assignment that carries the tower array on a city page
const Hook = "var buildings = "

// ErrHookMissing is returned by ExtractTowers when no script declares the buildings variable
var ErrHookMissing = errors.New("buildings script not found")

// PageWrongFormatError reports a city page that does not carry the tower data
type PageWrongFormatError struct {
	City string
	URL  string
}

func (e *PageWrongFormatError) Error() string {
	return fmt.Sprintf("page for %q seems to have wrong format (missing %q), full URL: %s", e.City, strings.TrimSpace(Hook), e.URL)
}

func (e *PageWrongFormatError) IsTransient() bool {
	return false
}

// Option is one <option> of a <select> on the search page
type Option struct {
	Label string
	Value string
}

// ExtractTowers finds the script that assigns the buildings variable and
// decodes the array that follows it
func ExtractTowers(page io.Reader) ([]models.RawTower, error) {
	doc, err := html.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	node := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Script && strings.Contains(textOf(n), Hook)
	})
	if node == nil {
		return nil, ErrHookMissing
	}

	script := textOf(node)
	payload := script[strings.Index(script, Hook)+len(Hook):]
	var towers []models.RawTower
	if err := json.NewDecoder(strings.NewReader(payload)).Decode(&towers); err != nil {
		return nil, fmt.Errorf("failed to decode buildings array: %w", err)
	}
	return towers, nil
}

// ParseOptions returns the options of the <select> with the given id, in page order
func ParseOptions(page io.Reader, selectID string) ([]Option, error) {
	doc, err := html.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	sel := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Select && attr(n, "id") == selectID
	})
	if sel == nil {
		return nil, fmt.Errorf("select %q not found", selectID)
	}

	var options []Option
	for _, n := range findAll(sel, func(n *html.Node) bool { return n.DataAtom == atom.Option }) {
		options = append(options, Option{
			Label: strings.TrimSpace(textOf(n)),
			Value: attr(n, "value"),
		})
	}
	return options, nil
}

// find returns the first node, depth first, that matches
func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every matching node without descending into matches
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	if match(n) {
		return []*html.Node{n}
	}
	var found []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		found = append(found, findAll(c, match)...)
	}
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			b.WriteString(textOf(c))
		}
	}
	return b.String()
}
