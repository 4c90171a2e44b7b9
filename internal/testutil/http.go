package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// JSONRequest builds a request with a JSON-encoded body.
func JSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = ToJSONReader(t, body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// DecodeJSON parses a JSON body into a generic map.
func DecodeJSON(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var result map[string]any
	require.NoError(t, json.Unmarshal(body, &result), "Failed to parse JSON response: %s", string(body))
	return result
}

// DecodeJSONAs parses a JSON body into T.
func DecodeJSONAs[T any](t *testing.T, body []byte) T {
	t.Helper()

	var result T
	require.NoError(t, json.Unmarshal(body, &result), "Failed to parse JSON response: %s", string(body))
	return result
}

// AssertSuccessResponse asserts the body is a successful API envelope and returns its data.
func AssertSuccessResponse(t *testing.T, body []byte) map[string]any {
	t.Helper()

	resp := DecodeJSON(t, body)
	assert.Equal(t, true, resp["success"], "Expected success to be true")
	assert.Nil(t, resp["error"], "Expected no error")

	data, _ := resp["data"].(map[string]any)
	return data
}

// AssertErrorResponse asserts the body is an error API envelope with the given code.
func AssertErrorResponse(t *testing.T, body []byte, expectedCode string) map[string]any {
	t.Helper()

	resp := DecodeJSON(t, body)
	assert.Equal(t, false, resp["success"], "Expected success to be false")

	errMap, ok := resp["error"].(map[string]any)
	require.True(t, ok, "Expected error object in response: %s", string(body))
	assert.Equal(t, expectedCode, errMap["code"], "Unexpected error code")
	return errMap
}

// ToJSONReader converts a value to a JSON io.Reader.
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
