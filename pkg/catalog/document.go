package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Message is a single declaration in a catalog document.
type Message struct {
	On       string `json:"on" yaml:"on"`
	Template string `json:"template" yaml:"template"`
	// File names a local template file. Only inline catalogs may use it.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Document is the YAML/JSON catalog format.
type Document struct {
	// Multiple hints that consumers of the catalog show every matching
	// message rather than the first.
	Multiple bool      `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Messages []Message `json:"messages" yaml:"messages"`
}

// Declarations converts the messages of a catalog document into inline
// declarations.
func (d Document) Declarations() []Declaration {
	out := make([]Declaration, 0, len(d.Messages))
	for _, msg := range d.Messages {
		out = append(out, Declaration{Key: msg.On, Template: msg.Template, File: msg.File})
	}
	return out
}

// Format identifies how a body is encoded.
type Format string

const (
	FormatMarkup Format = "markup"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
)

// DetectFormat inspects the first non-space byte of body.
func DetectFormat(body []byte) Format {
	trimmed := bytes.TrimLeft(body, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return FormatYAML
	}
	switch trimmed[0] {
	case '<':
		return FormatMarkup
	case '{', '[':
		return FormatJSON
	case '/':
		// leading JSONC comment
		if len(trimmed) > 1 && (trimmed[1] == '/' || trimmed[1] == '*') {
			return FormatJSON
		}
	}
	return FormatYAML
}

// ParseDocument decodes a YAML or JSON catalog document. Markup bodies are
// converted using the default message attribute.
func ParseDocument(body []byte) (Document, error) {
	return parseDocument(body, DefaultAttribute)
}

func parseDocument(body []byte, attribute string) (Document, error) {
	var doc Document
	switch DetectFormat(body) {
	case FormatMarkup:
		messages, err := parseMarkup(body, attribute)
		if err != nil {
			return Document{}, err
		}
		doc.Messages = messages
	case FormatJSON:
		if err := json.Unmarshal(jsonc.ToJSON(body), &doc); err != nil {
			return Document{}, fmt.Errorf("catalog: decode json document: %w", err)
		}
	default:
		if len(bytes.TrimSpace(body)) == 0 {
			return Document{}, errors.New("catalog: document is empty")
		}
		if err := yaml.Unmarshal(body, &doc); err != nil {
			return Document{}, fmt.Errorf("catalog: decode yaml document: %w", err)
		}
	}

	for i := range doc.Messages {
		doc.Messages[i].On = strings.TrimSpace(doc.Messages[i].On)
		doc.Messages[i].File = strings.TrimSpace(doc.Messages[i].File)
	}
	return doc, nil
}

// Marshal encodes doc as a YAML catalog document.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("catalog: encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("catalog: encode document: %w", err)
	}
	return buf.Bytes(), nil
}
