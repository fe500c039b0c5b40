package cli

import (
	"io"
	nethttp "net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	contentType   string
	contentLength string
	body          string
}

func newCaptureServer(t *testing.T, status int) (string, <-chan captured) {
	t.Helper()
	seen := make(chan captured, 1)
	url := newServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "POST", r.Method)
		body, _ := io.ReadAll(r.Body)
		seen <- captured{
			contentType:   r.Header.Get("Content-Type"),
			contentLength: r.Header.Get("Content-Length"),
			body:          string(body),
		}
		w.WriteHeader(status)
	})
	return url, seen
}

func TestPostCommand_Data(t *testing.T) {
	url, seen := newCaptureServer(t, nethttp.StatusCreated)

	stdout, _, err := executeCommand(t, "post", url+"/users", "-d", "name=Ada")
	require.NoError(t, err)

	got := <-seen
	assert.Equal(t, "name=Ada", got.body)
	assert.Equal(t, "8", got.contentLength)
	assert.Empty(t, got.contentType)
	assert.Contains(t, stdout, "▶ REQUEST: POST "+url+"/users")
	assert.Contains(t, stdout, "Body: name=Ada")
	assert.Contains(t, stdout, "◀ RESPONSE: 201 Created")
}

func TestPostCommand_JSON(t *testing.T) {
	url, seen := newCaptureServer(t, nethttp.StatusOK)

	_, _, err := executeCommand(t, "post", url, "-j", `{"name":"Ada"}`)
	require.NoError(t, err)

	got := <-seen
	assert.Equal(t, `{"name":"Ada"}`, got.body)
	assert.Equal(t, "application/json", got.contentType)
}

func TestPostCommand_JSONKeepsContentType(t *testing.T) {
	url, seen := newCaptureServer(t, nethttp.StatusOK)

	_, _, err := executeCommand(t, "post", url, "-j", `{}`, "-H", "Content-Type: application/vnd.api+json")
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.api+json", (<-seen).contentType)
}

func TestPostCommand_DataFromFile(t *testing.T) {
	url, seen := newCaptureServer(t, nethttp.StatusOK)
	path := writeFile(t, "body.json", `{"from":"file"}`)

	_, _, err := executeCommand(t, "post", url, "-j", "@"+path)
	require.NoError(t, err)
	assert.Equal(t, `{"from":"file"}`, (<-seen).body)

	_, _, err = executeCommand(t, "post", url, "-d", "@"+path+".missing")
	assert.ErrorContains(t, err, "reading body")
}

func TestPostCommand_NoBody(t *testing.T) {
	url, seen := newCaptureServer(t, nethttp.StatusNoContent)

	_, _, err := executeCommand(t, "post", url)
	require.NoError(t, err)

	got := <-seen
	assert.Equal(t, "0", got.contentLength)
	assert.Empty(t, got.body)
}

func TestPostCommand_DataAndJSONExclusive(t *testing.T) {
	_, _, err := executeCommand(t, "post", "http://example.com/", "-d", "a", "-j", "{}")
	assert.ErrorContains(t, err, "none of the others can be")
}
