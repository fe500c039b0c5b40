package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wesleyorama2/barehttp/http"
)

// Assertion is one check on a response. Exactly one of Status, Header and
// ResponseTime is set. A header assertion with none of Exists, Equals and
// Contains checks that the header is present.
type Assertion struct {
	Status       int     `yaml:"status,omitempty"`
	Header       string  `yaml:"header,omitempty"`
	Exists       *bool   `yaml:"exists,omitempty"`
	Equals       *string `yaml:"equals,omitempty"`
	Contains     string  `yaml:"contains,omitempty"`
	ResponseTime string  `yaml:"responseTime,omitempty"`
}

// Evaluate runs the assertion against resp and describes the outcome.
func (a Assertion) Evaluate(resp *http.Response) (bool, string) {
	switch {
	case a.Status != 0:
		if resp.StatusCode != a.Status {
			return false, fmt.Sprintf("Status code is %d, expected %d", resp.StatusCode, a.Status)
		}
		return true, fmt.Sprintf("Status code is %d", resp.StatusCode)

	case a.ResponseTime != "":
		op, limit, err := ParseResponseTime(a.ResponseTime)
		if err != nil {
			return false, err.Error()
		}
		actual := resp.GetResponseTimeMillis()
		if !compare(actual, op, limit) {
			return false, fmt.Sprintf("Response time %dms is not %s %dms", actual, op, limit)
		}
		return true, fmt.Sprintf("Response time %dms is %s %dms", actual, op, limit)

	case a.Header != "":
		return a.evaluateHeader(resp)
	}

	return false, "empty assertion"
}

func (a Assertion) evaluateHeader(resp *http.Response) (bool, string) {
	value, present := resp.Header.Lookup(a.Header)
	if !present {
		for _, f := range resp.Header.Fields() {
			if strings.EqualFold(f.Key, a.Header) {
				value, present = f.Value, true
				break
			}
		}
	}

	switch {
	case a.Equals != nil:
		if !present || value != *a.Equals {
			return false, fmt.Sprintf("Header %s value is %q, expected %q", a.Header, value, *a.Equals)
		}
		return true, fmt.Sprintf("Header %s equals %q", a.Header, value)

	case a.Contains != "":
		if !present || !strings.Contains(value, a.Contains) {
			return false, fmt.Sprintf("Header %s value %q does not contain %q", a.Header, value, a.Contains)
		}
		return true, fmt.Sprintf("Header %s contains %q", a.Header, a.Contains)

	default:
		want := a.Exists == nil || *a.Exists
		if present != want {
			return false, fmt.Sprintf("Header %s exists: %v, expected: %v", a.Header, present, want)
		}
		return true, fmt.Sprintf("Header %s exists: %v", a.Header, present)
	}
}

// ParseResponseTime splits an expression such as "<500" or ">=10" into its
// operator and limit in milliseconds. A bare number means "=".
func ParseResponseTime(expr string) (op string, limit int64, err error) {
	expr = strings.TrimSpace(expr)
	op = "="
	for _, candidate := range []string{"<=", ">=", "<", ">", "="} {
		if rest, ok := strings.CutPrefix(expr, candidate); ok {
			op, expr = candidate, strings.TrimSpace(rest)
			break
		}
	}

	limit, err = strconv.ParseInt(strings.TrimSuffix(expr, "ms"), 10, 64)
	if err != nil || limit < 0 {
		return "", 0, fmt.Errorf("invalid response time %q", expr)
	}
	return op, limit, nil
}

func compare(actual int64, op string, limit int64) bool {
	switch op {
	case "<":
		return actual < limit
	case "<=":
		return actual <= limit
	case ">":
		return actual > limit
	case ">=":
		return actual >= limit
	default:
		return actual == limit
	}
}

// HasStatusAssertion reports whether the request pins the status code.
// Requests without one fail on any 4xx or 5xx response.
func (r Request) HasStatusAssertion() bool {
	for _, a := range r.Assertions {
		if a.Status != 0 {
			return true
		}
	}
	return false
}

// validateAssertion returns a problem with a, or "" when it is well formed.
func validateAssertion(a Assertion) string {
	kinds := 0
	for _, set := range []bool{a.Status != 0, a.Header != "", a.ResponseTime != ""} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return "exactly one of status, header or responseTime is required"
	}

	if a.Status != 0 && (a.Status < 100 || a.Status > 999) {
		return fmt.Sprintf("invalid status %d", a.Status)
	}

	if a.ResponseTime != "" {
		if _, _, err := ParseResponseTime(a.ResponseTime); err != nil {
			return err.Error()
		}
	}

	if a.Header == "" && (a.Exists != nil || a.Equals != nil || a.Contains != "") {
		return "exists, equals and contains apply to header assertions only"
	}

	checks := 0
	for _, set := range []bool{a.Exists != nil, a.Equals != nil, a.Contains != ""} {
		if set {
			checks++
		}
	}
	if checks > 1 {
		return "use only one of exists, equals or contains"
	}
	return ""
}
