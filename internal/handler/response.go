package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"pisces-api/pkg/logger"
)

// maxBodyBytes bounds inbound JSON bodies
const maxBodyBytes = 1 << 20

// writeJSON writes v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// decodeJSONObject reads the body as a JSON object. Unreadable, malformed or
// non-object bodies yield an empty map.
func decodeJSONObject(r *http.Request) map[string]interface{} {
	body := map[string]interface{}{}
	if r.Body == nil {
		return body
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return body
	}

	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return body
	}
	if obj, ok := decoded.(map[string]interface{}); ok {
		return obj
	}
	return body
}

// stringField returns body[key] when it is a string, "" otherwise
func stringField(body map[string]interface{}, key string) string {
	s, _ := body[key].(string)
	return s
}
