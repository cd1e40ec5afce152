package render

import "strings"

// Built-in style names accepted by the renderer
const (
	StyleDark    = "dark"
	StyleLight   = "light"
	StyleAuto    = "auto"
	StyleDracula = "dracula"
	StyleNoTTY   = "notty"
)

// AvailableStyles lists the built-in styles for config validation
func AvailableStyles() []string {
	return []string{StyleDark, StyleLight, StyleAuto, StyleDracula, StyleNoTTY}
}

// IsBuiltinStyle reports whether name is one of the built-in styles
func IsBuiltinStyle(name string) bool {
	for _, style := range AvailableStyles() {
		if strings.EqualFold(name, style) {
			return true
		}
	}
	return false
}

// NormalizeStyle maps a user-supplied style to what glamour accepts.
// Built-in names are lowercased; anything else is assumed to be a path
// to a JSON theme file and passed through untouched.
func NormalizeStyle(name string) string {
	if name == "" {
		return StyleDark
	}
	if IsBuiltinStyle(name) {
		return strings.ToLower(name)
	}
	return name
}
