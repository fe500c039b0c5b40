package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/barehttp/http"
)

// Config represents the top-level configuration of a request file.
// JSON files load as well since JSON is valid YAML.
type Config struct {
	Environments map[string]Environment `yaml:"environments"`
	Requests     map[string]Request     `yaml:"requests"`
	Suites       map[string]Suite       `yaml:"suites,omitempty"`
}

// Environment represents an environment configuration
type Environment struct {
	BaseURL string            `yaml:"baseUrl"`
	Headers Headers           `yaml:"headers,omitempty"`
	Vars    map[string]string `yaml:"variables,omitempty"`
}

// Request represents a request configuration
type Request struct {
	URL    string `yaml:"url"`
	Method string `yaml:"method,omitempty"`
	// Headers are sent after the environment headers and override them.
	Headers Headers `yaml:"headers,omitempty"`
	// Body is a string sent verbatim, or a mapping or sequence sent as JSON.
	Body     interface{}            `yaml:"body,omitempty"`
	Extract  map[string]string      `yaml:"extract,omitempty"`
	Validate map[string]interface{} `yaml:"validate,omitempty"`
	// Assertions are checked against every response. Without a status
	// assertion a 4xx or 5xx response fails the request.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Suite represents a suite of requests
type Suite struct {
	Requests []string          `yaml:"requests"`
	Vars     map[string]string `yaml:"variables,omitempty"`
}

// Headers is a header mapping that keeps the order written in the file.
type Headers []http.Field

// UnmarshalYAML decodes a mapping of scalars in document order.
func (h *Headers) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: headers must be a mapping", node.Line)
	}

	out := make(Headers, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: header %q must have a scalar value", value.Line, key.Value)
		}
		out = append(out, http.Field{Key: key.Value, Value: value.Value})
	}

	*h = out
	return nil
}

// MarshalYAML encodes the headers as a mapping in order.
func (h Headers) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range h {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Value},
		)
	}
	return node, nil
}

// LoadConfig loads a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

// ParseConfig decodes a configuration document. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var config Config
	if err := dec.Decode(&config); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}

	return &config, nil
}

// ResolveURL joins a request URL onto the environment base URL. Absolute
// URLs are returned unchanged and an empty URL means the base URL itself.
func (e Environment) ResolveURL(url string) string {
	if url == "" {
		return e.BaseURL
	}
	if isAbsoluteURL(url) {
		return url
	}
	return strings.TrimSuffix(e.BaseURL, "/") + "/" + strings.TrimPrefix(url, "/")
}

// isAbsoluteURL checks if a URL carries a scheme
func isAbsoluteURL(url string) bool {
	return strings.Contains(url, "://")
}

// BuildHeader merges environment and request headers, request values
// winning, and substitutes variables in the values.
func BuildHeader(env Environment, req Request, vars map[string]string) http.Header {
	var h http.Header
	for _, f := range env.Headers {
		h.Set(f.Key, ProcessEnvironment(f.Value, vars))
	}
	for _, f := range req.Headers {
		h.Set(f.Key, ProcessEnvironment(f.Value, vars))
	}
	return h
}

// BodyBytes renders the request body with variables substituted. A nil body
// reports ok=false.
func (r Request) BodyBytes(vars map[string]string) (b []byte, ok bool, err error) {
	switch body := r.Body.(type) {
	case nil:
		return nil, false, nil
	case string:
		return []byte(ProcessEnvironment(body, vars)), true, nil
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(processValue(body, vars))
		if err != nil {
			return nil, false, fmt.Errorf("encoding body: %w", err)
		}
		return b, true, nil
	default:
		return nil, false, fmt.Errorf("unsupported body type %T", r.Body)
	}
}

// processValue substitutes variables in every string of a decoded document.
func processValue(v interface{}, vars map[string]string) interface{} {
	switch t := v.(type) {
	case string:
		return ProcessEnvironment(t, vars)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = processValue(val, vars)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = processValue(val, vars)
		}
		return out
	default:
		return v
	}
}

// ProcessEnvironment processes environment variables in a string
func ProcessEnvironment(input string, env map[string]string) string {
	result := input

	for key, value := range env {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}

	return result
}

// ProcessEnvironmentInMap processes environment variables in a map
func ProcessEnvironmentInMap(input map[string]string, env map[string]string) map[string]string {
	result := make(map[string]string)

	for key, value := range input {
		result[key] = ProcessEnvironment(value, env)
	}

	return result
}

// MergeEnvironments merges two environments, with the second taking precedence
func MergeEnvironments(base, override map[string]string) map[string]string {
	result := make(map[string]string)

	for key, value := range base {
		result[key] = value
	}

	for key, value := range override {
		result[key] = value
	}

	return result
}
