package protocol

import (
	"strings"
	"unicode"
)

// CamelToSnakeKeys re-encodes every object key in a decoded JSON value from
// lowerCamel to snake_case. Arrays and scalars pass through unchanged.
// Applied once on ingress.
func CamelToSnakeKeys(v any) any {
	return translateKeys(v, camelToSnake)
}

// SnakeToCamelKeys re-encodes every object key from snake_case to
// lowerCamel. Applied once on egress.
func SnakeToCamelKeys(v any) any {
	return translateKeys(v, snakeToCamel)
}

func translateKeys(v any, translate func(string) string) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[translate(k)] = translateKeys(child, translate)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = translateKeys(child, translate)
		}
		return out
	default:
		return v
	}
}

// snakeToCamel is the exact inverse of camelToSnake: each underscore
// followed by a letter is dropped and the letter capitalized. Underscores in
// any other position (trailing, doubled, before a digit) stay literal, which
// is what lets the pair round-trip on the protocol's key set.
func snakeToCamel(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(runes); i++ {
		if runes[i] == '_' && i+1 < len(runes) && unicode.IsLetter(runes[i+1]) {
			b.WriteRune(unicode.ToUpper(runes[i+1]))
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

// camelToSnake inserts an underscore before each uppercase rune and
// lowercases it. Strings without uppercase runes are fixpoints.
func camelToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
