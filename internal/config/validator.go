package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wesleyorama2/barehttp/http"
	"github.com/wesleyorama2/barehttp/pkg/jsonschema"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidateConfig validates the configuration and returns every problem
// found, in a stable order.
func ValidateConfig(config *Config) []ValidationError {
	var errors []ValidationError
	add := func(path, format string, args ...interface{}) {
		errors = append(errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if len(config.Environments) == 0 {
		add("environments", "at least one environment is required")
	}

	for _, name := range sortedKeys(config.Environments) {
		env := config.Environments[name]
		path := fmt.Sprintf("environments.%s.baseUrl", name)
		if env.BaseURL == "" {
			add(path, "baseUrl is required")
			continue
		}
		if _, err := http.ParseURL(ProcessEnvironment(env.BaseURL, env.Vars)); err != nil {
			add(path, "invalid baseUrl: %v", err)
		}
	}

	if len(config.Requests) == 0 {
		add("requests", "at least one request is required")
	}

	for _, name := range sortedKeys(config.Requests) {
		req := config.Requests[name]
		prefix := "requests." + name

		if req.URL == "" {
			add(prefix+".url", "url is required")
		}

		if req.Method != "" {
			if _, err := http.ParseMethod(req.Method); err != nil {
				add(prefix+".method", "invalid method: %s", req.Method)
			}
		}

		switch req.Body.(type) {
		case nil, string, map[string]interface{}, []interface{}:
		default:
			add(prefix+".body", "body must be a string, a mapping or a sequence")
		}

		for _, varName := range sortedKeys(req.Extract) {
			path := req.Extract[varName]
			if path == "" {
				add(prefix+".extract."+varName, "extract path cannot be empty")
			} else if !strings.HasPrefix(path, "$") {
				add(prefix+".extract."+varName, "extract path must start with $")
			}
		}

		for i, a := range req.Assertions {
			if problem := validateAssertion(a); problem != "" {
				add(fmt.Sprintf("%s.assertions[%d]", prefix, i), "%s", problem)
			}
		}

		if len(req.Validate) > 0 {
			if err := compileSchema(req.Validate); err != nil {
				add(prefix+".validate", "%v", err)
			}
		}
	}

	for _, name := range sortedKeys(config.Suites) {
		suite := config.Suites[name]

		if len(suite.Requests) == 0 {
			add(fmt.Sprintf("suites.%s.requests", name), "at least one request is required")
		}

		for i, reqName := range suite.Requests {
			if _, ok := config.Requests[reqName]; !ok {
				add(fmt.Sprintf("suites.%s.requests[%d]", name, i), "request not found: %s", reqName)
			}
		}
	}

	return errors
}

func compileSchema(schema map[string]interface{}) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	_, err = jsonschema.Compile(data)
	return err
}

// ValidateEnvironment validates that an environment exists
func ValidateEnvironment(config *Config, envName string) error {
	if _, ok := config.Environments[envName]; !ok {
		return fmt.Errorf("environment not found: %s", envName)
	}
	return nil
}

// ValidateRequest validates that a request exists
func ValidateRequest(config *Config, reqName string) error {
	if _, ok := config.Requests[reqName]; !ok {
		return fmt.Errorf("request not found: %s", reqName)
	}
	return nil
}

// ValidateSuite validates that a suite exists
func ValidateSuite(config *Config, suiteName string) error {
	if _, ok := config.Suites[suiteName]; !ok {
		return fmt.Errorf("suite not found: %s", suiteName)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
