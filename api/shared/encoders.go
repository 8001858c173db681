package shared

import (
	"context"
	"encoding/json"
	"net/http"
)

func EncodeResponse200(_ context.Context, w http.ResponseWriter, response interface{}) error {
	return encodeJSON(w, http.StatusOK, response)
}

func EncodeResponse201(_ context.Context, w http.ResponseWriter, response interface{}) error {
	return encodeJSON(w, http.StatusCreated, response)
}

func EncodeResponse204(_ context.Context, w http.ResponseWriter, response interface{}) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func encodeJSON(w http.ResponseWriter, code int, response interface{}) error {
	if response == nil {
		w.WriteHeader(code)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(response)
}

func IgnorePayload(_ context.Context, _ *http.Request) (interface{}, error) {
	return nil, nil
}

// WriteJSON is used by handlers living outside of go-kit (middlewares,
// router fallbacks).
func WriteJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

var NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, map[string]interface{}{"message": "API Endpoint Not Found"}, http.StatusNotFound)
})

var MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, map[string]interface{}{"message": "Method Not Allowed"}, http.StatusMethodNotAllowed)
})
