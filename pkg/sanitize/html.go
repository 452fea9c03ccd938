// Package sanitize reduces rich-text HTML fragments to a small allow-list.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var allowedTags = map[string]bool{
	"strong": true,
	"em":     true,
	"u":      true,
	"p":      true,
	"span":   true,
}

// Elements dropped together with everything inside them.
var droppedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"textarea": true,
	"option":   true,
	"noscript": true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
	"template": true,
	"title":    true,
	"xmp":      true,
	"noembed":  true,
	"noframes": true,
	"svg":      true,
	"math":     true,
}

var (
	styleProperty = regexp.MustCompile(`^-?[a-z][a-z-]*$`)
	unsafeStyle   = regexp.MustCompile(`(?i)(expression|javascript:|vbscript:|url\s*\(|@import|behavior|[<>\\])`)
)

// HTML strips every tag and attribute that is not allow-listed. Only span may
// carry an attribute (style). Dropped elements lose their content too, other
// disallowed tags are unwrapped and keep their text. The output is stable:
// HTML(HTML(s)) == HTML(s). Invalid UTF-8 becomes U+FFFD.
func HTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	fragment = strings.ToValidUTF8(fragment, "\uFFFD")

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skipTag := ""
	skipDepth := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a read error; either way the fragment is exhausted.
			break
		}

		tok := z.Token()

		if skipDepth > 0 {
			switch {
			case tt == html.StartTagToken && tok.Data == skipTag:
				skipDepth++
			case tt == html.EndTagToken && tok.Data == skipTag:
				skipDepth--
			}
			continue
		}

		switch tt {
		case html.TextToken:
			b.WriteString(html.EscapeString(tok.Data))
		case html.StartTagToken:
			if droppedTags[tok.Data] {
				skipTag = tok.Data
				skipDepth = 1
				continue
			}
			if allowedTags[tok.Data] {
				writeStartTag(&b, tok)
			}
		case html.SelfClosingTagToken:
			if allowedTags[tok.Data] {
				writeStartTag(&b, tok)
				writeEndTag(&b, tok.Data)
			}
		case html.EndTagToken:
			if allowedTags[tok.Data] {
				writeEndTag(&b, tok.Data)
			}
		}
	}

	return b.String()
}

// HTMLPtr sanitizes an optional fragment; nil gives "".
func HTMLPtr(fragment *string) string {
	if fragment == nil {
		return ""
	}
	return HTML(*fragment)
}

func writeStartTag(b *strings.Builder, tok html.Token) {
	b.WriteByte('<')
	b.WriteString(tok.Data)
	if tok.Data == "span" {
		for _, attr := range tok.Attr {
			if attr.Namespace != "" || attr.Key != "style" {
				continue
			}
			if style := cleanStyle(attr.Val); style != "" {
				b.WriteString(` style="`)
				b.WriteString(html.EscapeString(style))
				b.WriteByte('"')
			}
			break
		}
	}
	b.WriteByte('>')
}

func writeEndTag(b *strings.Builder, name string) {
	b.WriteString("</")
	b.WriteString(name)
	b.WriteByte('>')
}

// cleanStyle keeps "property: value" declarations that cannot load resources
// or run script, in a canonical "a: b; c: d" form.
func cleanStyle(style string) string {
	var decls []string
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.Join(strings.Fields(val), " ")
		if val == "" || !styleProperty.MatchString(prop) || unsafeStyle.MatchString(val) {
			continue
		}
		decls = append(decls, prop+": "+val)
	}
	return strings.Join(decls, "; ")
}
