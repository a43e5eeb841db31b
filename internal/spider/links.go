package spider

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// linkAttrs maps the elements the crawler follows to their URL attribute
var linkAttrs = map[string]string{
	"a":      "href",
	"area":   "href",
	"link":   "href",
	"script": "src",
	"img":    "src",
	"iframe": "src",
	"frame":  "src",
	"form":   "action",
}

// extractLinks returns the absolute URLs referenced by an HTML document,
// resolved against base (or a <base href> if the page declares one)
func extractLinks(base *url.URL, body io.Reader) []*url.URL {
	var (
		links []*url.URL
		seen  = make(map[string]struct{})
	)

	tokenizer := html.NewTokenizer(body)
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()

			if token.Data == "base" {
				if href := attr(token, "href"); href != "" {
					if u, err := base.Parse(href); err == nil {
						base = u
					}
				}
				continue
			}

			name, ok := linkAttrs[token.Data]
			if !ok {
				continue
			}

			raw := strings.TrimSpace(attr(token, name))
			if raw == "" || strings.HasPrefix(raw, "javascript:") || strings.HasPrefix(raw, "mailto:") {
				continue
			}

			u, err := base.Parse(raw)
			if err != nil {
				continue
			}
			if _, dup := seen[u.String()]; dup {
				continue
			}
			seen[u.String()] = struct{}{}
			links = append(links, u)
		}
	}
}

func attr(token html.Token, name string) string {
	for _, a := range token.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
