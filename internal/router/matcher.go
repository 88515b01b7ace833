package router

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Methods accepted in a route table.
var validMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// defaultParamPattern is used for template slots without an explicit regex.
const defaultParamPattern = `[^/]+`

// NormalizePath strips a single trailing slash, so "/stat/" and "/stat" are
// equivalent and "/" becomes "".
func NormalizePath(path string) string {
	return strings.TrimSuffix(path, "/")
}

// IsValidMethod reports whether method belongs to the supported enumeration.
func IsValidMethod(method string) bool {
	return validMethods[method]
}

// IsRegexPattern reports whether pattern is a raw regular expression rather
// than a template.
func IsRegexPattern(pattern string) bool {
	return strings.HasPrefix(pattern, "^")
}

// CompilePattern compiles a route pattern into an anchored regular expression.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if IsRegexPattern(pattern) {
		return regexp.Compile(pattern)
	}

	expr, err := templateToRegex(pattern)
	if err != nil {
		return nil, err
	}
	return regexp.Compile(expr)
}

// templateToRegex converts a template such as /stat/{token:[a-z]+} into
// ^/stat/(?P<token>[a-z]+)$.
func templateToRegex(pattern string) (string, error) {
	var result strings.Builder
	result.WriteString("^")

	i := 0
	for i < len(pattern) {
		switch pattern[i] {
		case '{':
			end, err := closingBrace(pattern, i)
			if err != nil {
				return "", err
			}
			name, expr, err := parseSlot(pattern[i+1 : end])
			if err != nil {
				return "", err
			}
			result.WriteString("(?P<")
			result.WriteString(name)
			result.WriteString(">")
			result.WriteString(expr)
			result.WriteString(")")
			i = end + 1
		case '}':
			return "", fmt.Errorf("unexpected '}' at offset %d in %q", i, pattern)
		default:
			result.WriteString(regexp.QuoteMeta(string(pattern[i])))
			i++
		}
	}

	result.WriteString("$")
	return result.String(), nil
}

// closingBrace returns the index of the brace closing the slot opened at
// start, allowing nested braces such as repetition counts inside the slot.
func closingBrace(pattern string, start int) (int, error) {
	depth := 0
	for i := start; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated parameter at offset %d in %q", start, pattern)
}

// parseSlot splits "name" or "name:regex".
func parseSlot(slot string) (name, expr string, err error) {
	name, expr, found := strings.Cut(slot, ":")
	if !found {
		expr = defaultParamPattern
	}
	if !isIdentifier(name) {
		return "", "", fmt.Errorf("invalid parameter name %q", name)
	}
	if expr == "" {
		return "", "", fmt.Errorf("empty pattern for parameter %q", name)
	}
	return name, expr, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
