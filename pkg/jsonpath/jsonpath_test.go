package jsonpath

import (
	"errors"
	"testing"
)

const document = `{
	"name": "John Doe",
	"age": 30,
	"address": {
		"city": "Anytown",
		"zipcode": "12345"
	},
	"phones": [
		{"type": "home", "number": "555-1234"},
		{"type": "work", "number": "555-5678"}
	],
	"active": true,
	"scores": [10, 20, 30, 40],
	"metadata": null,
	"dotted.key": "escaped"
}`

func TestExtract(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		expected      string
		expectedError bool
	}{
		{name: "Simple property", path: "$.name", expected: "John Doe"},
		{name: "Numeric property", path: "$.age", expected: "30"},
		{name: "Boolean property", path: "$.active", expected: "true"},
		{name: "Nested property", path: "$.address.city", expected: "Anytown"},
		{name: "Bracket property", path: "$['address']['zipcode']", expected: "12345"},
		{name: "Double quoted bracket", path: `$["name"]`, expected: "John Doe"},
		{name: "Array element", path: "$.scores[1]", expected: "20"},
		{name: "Object in array", path: "$.phones[0].number", expected: "555-1234"},
		{name: "Object value", path: "$.phones[1]", expected: `{"type": "work", "number": "555-5678"}`},
		{name: "Null value", path: "$.metadata", expected: "null"},
		{name: "Key with a dot", path: "$['dotted.key']", expected: "escaped"},
		{name: "Non-existent property", path: "$.nonexistent", expectedError: true},
		{name: "Array index out of bounds", path: "$.scores[10]", expectedError: true},
		{name: "Empty path", path: "", expectedError: true},
		{name: "Missing root", path: "name", expectedError: true},
		{name: "Wildcard unsupported", path: "$.scores[*]", expectedError: true},
		{name: "Unterminated bracket", path: "$.scores[1", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Extract([]byte(document), tt.path)

			if tt.expectedError && err == nil {
				t.Errorf("Expected error, got nil")
			}
			if !tt.expectedError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if !tt.expectedError && result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestExtract_Errors(t *testing.T) {
	if _, err := Extract(nil, "$.name"); !errors.Is(err, ErrInvalidJSON) {
		t.Errorf("Extract(nil) error = %v, want ErrInvalidJSON", err)
	}
	if _, err := Extract([]byte("<html>"), "$.name"); !errors.Is(err, ErrInvalidJSON) {
		t.Errorf("Extract(html) error = %v, want ErrInvalidJSON", err)
	}
	if _, err := Extract([]byte(`{"a":1}`), "$.b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Extract($.b) error = %v, want ErrNotFound", err)
	}
}

func TestExtract_Root(t *testing.T) {
	got, err := Extract([]byte(`[1,2]`), "$")
	if err != nil {
		t.Fatalf("Extract($) error = %v", err)
	}
	if got != "[1,2]" {
		t.Errorf("Extract($) = %q", got)
	}

	got, err = Extract([]byte(`[{"id":5}]`), "$[0].id")
	if err != nil || got != "5" {
		t.Errorf("Extract($[0].id) = %q, %v", got, err)
	}
}

func TestExtractMultiple(t *testing.T) {
	results, err := ExtractMultiple([]byte(document), map[string]string{
		"name":  "$.name",
		"city":  "$.address.city",
		"phone": "$.phones[1].number",
	})
	if err != nil {
		t.Fatalf("ExtractMultiple() error = %v", err)
	}

	want := map[string]string{"name": "John Doe", "city": "Anytown", "phone": "555-5678"}
	for k, v := range want {
		if results[k] != v {
			t.Errorf("results[%q] = %q, want %q", k, results[k], v)
		}
	}
}

func TestExtractMultiple_Partial(t *testing.T) {
	results, err := ExtractMultiple([]byte(document), map[string]string{
		"name":    "$.name",
		"missing": "$.nope",
		"bad":     "nope",
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if results["name"] != "John Doe" {
		t.Errorf("Expected successful extractions to be kept, got %v", results)
	}
	if len(results) != 1 {
		t.Errorf("Expected one result, got %v", results)
	}
	// Errors are reported in name order.
	if got := err.Error(); got[:len("extraction errors: bad:")] != "extraction errors: bad:" {
		t.Errorf("Unexpected error text %q", got)
	}
}

func TestExtractMultiple_NoPaths(t *testing.T) {
	results, err := ExtractMultiple([]byte(document), nil)
	if err != nil || len(results) != 0 {
		t.Errorf("ExtractMultiple(nil) = %v, %v", results, err)
	}
}

func TestConvertToGjsonPath(t *testing.T) {
	tests := []struct {
		jsonPath  string
		gjsonPath string
	}{
		{"$.name", "name"},
		{"$['name']", "name"},
		{"$.user.name", "user.name"},
		{"$.items[0]", "items.0"},
		{"$.items[0].name", "items.0.name"},
		{"$.deeply.nested[0].array[1].value", "deeply.nested.0.array.1.value"},
		{"$", "@this"},
		{"$[0]", "0"},
		{"$[0].name", "0.name"},
		{"$['a.b']", `a\.b`},
		{"$['x*']", `x\*`},
	}

	for _, tt := range tests {
		t.Run(tt.jsonPath, func(t *testing.T) {
			result, err := convertToGjsonPath(tt.jsonPath)
			if err != nil {
				t.Fatalf("convertToGjsonPath(%q) error = %v", tt.jsonPath, err)
			}
			if result != tt.gjsonPath {
				t.Errorf("convertToGjsonPath(%q) = %q, want %q", tt.jsonPath, result, tt.gjsonPath)
			}
		})
	}
}
