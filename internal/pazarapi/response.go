package pazarapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Pazar/pazar_sdk_go/internal/httpx"
)

// DecodeResponse parses a marketplace API response body into out. Empty
// bodies decode as JSON null so optional payloads unmarshal cleanly.
func DecodeResponse(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		trimmed = []byte("null")
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("pazarapi: decode response: %w", err)
	}
	return nil
}

// ErrorMessage extracts the human-readable message from a failed API call.
// Marketplace handlers report failures as {"error":"..."} or
// {"message":"..."}; the message is returned exactly as the server sent it.
// Non-JSON bodies are returned verbatim, and an empty body falls back to
// the HTTP status text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *httpx.HTTPError
	if !errors.As(err, &httpErr) {
		return err.Error()
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if jsonErr := json.Unmarshal(httpErr.Body, &payload); jsonErr == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(httpErr.Body)); text != "" {
		return text
	}
	return http.StatusText(httpErr.StatusCode)
}
