// Package jsonpath extracts values from JSON response bodies using a
// JSONPath subset: $, .name, ['name'], ["name"] and [index].
package jsonpath

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrNotFound is returned when a path matches nothing.
	ErrNotFound = errors.New("path not found")
	// ErrInvalidJSON is returned when the document is empty or not JSON.
	ErrInvalidJSON = errors.New("invalid JSON document")
)

// Extract extracts a value from a JSON document using a JSONPath expression.
// Strings are returned unquoted, null as "null" and objects and arrays as
// raw JSON.
func Extract(data []byte, path string) (string, error) {
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return "", ErrInvalidJSON
	}

	gpath, err := convertToGjsonPath(path)
	if err != nil {
		return "", err
	}

	result := gjson.GetBytes(data, gpath)
	if !result.Exists() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if result.Type == gjson.Null {
		return "null", nil
	}

	return result.String(), nil
}

// ExtractMultiple extracts one value per named path. Values that could be
// extracted are returned even when others fail.
func ExtractMultiple(data []byte, paths map[string]string) (map[string]string, error) {
	if len(paths) == 0 {
		return map[string]string{}, nil
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(paths))
	var errs []string

	for _, name := range names {
		value, err := Extract(data, paths[name])
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		results[name] = value
	}

	if len(errs) > 0 {
		return results, fmt.Errorf("extraction errors: %s", strings.Join(errs, "; "))
	}

	return results, nil
}

// convertToGjsonPath converts a JSONPath expression to a gjson path.
//
// JSONPath: $.users[0].name
// gjson:    users.0.name
func convertToGjsonPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty JSONPath expression")
	}
	if !strings.HasPrefix(path, "$") {
		return "", fmt.Errorf("JSONPath %q must start with $", path)
	}

	var parts []string
	rest := path[1:]
	for rest != "" {
		switch rest[0] {
		case '.':
			end := strings.IndexAny(rest[1:], ".[")
			if end < 0 {
				end = len(rest) - 1
			}
			name := rest[1 : end+1]
			if name == "" {
				return "", fmt.Errorf("JSONPath %q: empty name", path)
			}
			parts = append(parts, escape(name))
			rest = rest[end+1:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return "", fmt.Errorf("JSONPath %q: unterminated bracket", path)
			}
			inner := rest[1:end]
			if n := len(inner); n >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[n-1] == inner[0] {
				inner = inner[1 : n-1]
			} else if strings.Trim(inner, "0123456789") != "" || inner == "" {
				return "", fmt.Errorf("JSONPath %q: unsupported selector [%s]", path, inner)
			}
			parts = append(parts, escape(inner))
			rest = rest[end+1:]
		default:
			return "", fmt.Errorf("JSONPath %q: unexpected %q", path, rest[0])
		}
	}

	if len(parts) == 0 {
		return "@this", nil
	}
	return strings.Join(parts, "."), nil
}

// escape protects gjson's path syntax characters inside a single key.
func escape(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
