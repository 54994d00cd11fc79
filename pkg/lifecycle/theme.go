package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Theme tokens naming the activity classes.
const (
	ActiveClassToken   = "messages.activeClass"
	InactiveClassToken = "messages.inactiveClass"
)

// Default activity classes.
const (
	DefaultActiveClass   = "messages-active"
	DefaultInactiveClass = "messages-inactive"
)

type themeChoice struct {
	selector theme.ThemeSelector
	name     string
	variant  string
}

// resolveClasses reads the activity classes from a theme selection, variant
// tokens taking precedence over manifest tokens. Missing tokens keep the
// supplied fallbacks.
func resolveClasses(choice themeChoice, active, inactive string) (string, string, error) {
	if choice.selector == nil {
		return active, inactive, nil
	}
	selection, err := choice.selector.Select(choice.name, choice.variant)
	if err != nil {
		return "", "", fmt.Errorf("lifecycle: select theme %q: %w", choice.name, err)
	}
	if selection == nil || selection.Manifest == nil {
		return "", "", errors.New("lifecycle: theme selection has no manifest")
	}

	tokens := make(map[string]string, len(selection.Manifest.Tokens))
	for key, value := range selection.Manifest.Tokens {
		tokens[key] = value
	}
	if variant, ok := selection.Manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
	}

	if value := strings.TrimSpace(tokens[ActiveClassToken]); value != "" {
		active = value
	}
	if value := strings.TrimSpace(tokens[InactiveClassToken]); value != "" {
		inactive = value
	}
	return active, inactive, nil
}
