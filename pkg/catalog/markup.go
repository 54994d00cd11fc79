package catalog

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultAttribute marks message elements in markup templates.
const DefaultAttribute = "data-message-on"

func parseMarkup(body []byte, attribute string) ([]Message, error) {
	parent := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(body), parent)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse markup: %w", err)
	}

	var out []Message
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if key, ok := attr(n, attribute); ok {
				var buf strings.Builder
				for child := n.FirstChild; child != nil; child = child.NextSibling {
					writeNode(&buf, child)
				}
				out = append(out, Message{On: strings.TrimSpace(key), Template: strings.TrimSpace(buf.String())})
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out, nil
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// writeNode serialises n keeping text verbatim so template syntax such as
// {% if control == "x" %} survives. Comments are dropped.
func writeNode(buf *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
	case html.ElementNode:
		buf.WriteByte('<')
		buf.WriteString(n.Data)
		for _, a := range n.Attr {
			buf.WriteByte(' ')
			buf.WriteString(a.Key)
			buf.WriteString(`="`)
			buf.WriteString(strings.ReplaceAll(a.Val, `"`, "&quot;"))
			buf.WriteByte('"')
		}
		buf.WriteByte('>')
		if voidElements[n.Data] {
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			writeNode(buf, child)
		}
		buf.WriteString("</")
		buf.WriteString(n.Data)
		buf.WriteByte('>')
	}
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}
