package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// FromOpenAPI derives default validation messages for one property of a
// component schema. Keys follow the validator names forms report:
// required, minlength, maxlength, pattern, min, max, enum and the string
// format (email, uri, date, ...).
func FromOpenAPI(ctx context.Context, raw []byte, schemaName, property string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if len(raw) == 0 {
		return Document{}, errors.New("catalog openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return Document{}, fmt.Errorf("catalog openapi: load document: %w", err)
	}
	if spec.Components == nil || spec.Components.Schemas == nil {
		return Document{}, errors.New("catalog openapi: document has no component schemas")
	}

	parent, ok := spec.Components.Schemas[schemaName]
	if !ok || parent == nil || parent.Value == nil {
		return Document{}, fmt.Errorf("catalog openapi: schema %q not found", schemaName)
	}
	ref, ok := parent.Value.Properties[property]
	if !ok || ref == nil || ref.Value == nil {
		return Document{}, fmt.Errorf("catalog openapi: property %q not found on %q", property, schemaName)
	}

	required := false
	for _, name := range parent.Value.Required {
		if name == property {
			required = true
			break
		}
	}
	return Document{Messages: messagesForSchema(ref.Value, required)}, nil
}

func messagesForSchema(src *openapi3.Schema, required bool) []Message {
	var out []Message
	add := func(on, template string) {
		out = append(out, Message{On: on, Template: template})
	}

	if required {
		add("required", "This field is required.")
	}
	if src.Format != "" {
		add(src.Format, formatMessage(src.Format))
	}
	if src.MinLength != 0 {
		add("minlength", fmt.Sprintf("Must be at least %d characters.", src.MinLength))
	}
	if src.MaxLength != nil {
		add("maxlength", fmt.Sprintf("Must be at most %d characters.", *src.MaxLength))
	}
	if src.Pattern != "" {
		add("pattern", "Does not match the expected format.")
	}
	if src.Min != nil {
		verb := "at least"
		if src.ExclusiveMin {
			verb = "greater than"
		}
		add("min", fmt.Sprintf("Must be %s %s.", verb, formatNumber(*src.Min)))
	}
	if src.Max != nil {
		verb := "at most"
		if src.ExclusiveMax {
			verb = "less than"
		}
		add("max", fmt.Sprintf("Must be %s %s.", verb, formatNumber(*src.Max)))
	}
	if len(src.Enum) > 0 {
		values := make([]string, 0, len(src.Enum))
		for _, value := range src.Enum {
			values = append(values, fmt.Sprint(value))
		}
		sort.Strings(values)
		add("enum", "Must be one of: "+strings.Join(values, ", ")+".")
	}
	return out
}

func formatMessage(format string) string {
	switch format {
	case "email":
		return "Enter a valid email address."
	case "uri", "url":
		return "Enter a valid URL."
	case "date":
		return "Enter a valid date."
	case "date-time":
		return "Enter a valid date and time."
	case "uuid":
		return "Enter a valid UUID."
	default:
		return "Must be a valid " + format + "."
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
