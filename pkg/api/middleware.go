package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/ssargent/vifgate/pkg/codec"
	"github.com/ssargent/vifgate/pkg/gateway"
)

// apiKeyMiddleware validates the X-API-Key header
func apiKeyMiddleware(expectedKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				sendError(w, "Missing X-API-Key header", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(expectedKey)) != 1 {
				sendError(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sendSuccess sends a successful JSON response
func sendSuccess(w http.ResponseWriter, data interface{}) {
	sendJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// sendError sends an error JSON response
func sendError(w http.ResponseWriter, message string, statusCode int) {
	sendJSON(w, statusCode, APIResponse{Success: false, Error: message})
}

func sendJSON(w http.ResponseWriter, statusCode int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// statusFor maps a venue call failure to an HTTP status: bad input is
// 400, host and transport failures are 502, or 504 on timeout. An
// unreadable host reply wraps a codec error but is still the host's fault.
func statusFor(err error) int {
	var (
		respErr   *gateway.ResponseError
		full      *codec.GroupFullError
		malformed *codec.MalformedRecordError
		unknown   *codec.UnknownFieldError
		missing   *codec.MissingRecordCodeError
		badValue  *codec.FieldValueError
		hostErr   *gateway.HostError
		connErr   *gateway.ConnectionError
		netErr    net.Error
	)
	switch {
	case errors.As(err, &respErr):
		return http.StatusBadGateway
	case errors.As(err, &malformed), errors.As(err, &unknown),
		errors.As(err, &missing), errors.As(err, &badValue), errors.As(err, &full):
		return http.StatusBadRequest
	case errors.As(err, &hostErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return http.StatusGatewayTimeout
	case errors.As(err, &connErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// sendVenueError writes a failed venue call. Host errors carry the parsed
// response so callers can see what the host said.
func sendVenueError(w http.ResponseWriter, err error, resp *codec.Message) {
	code := statusFor(err)

	var hostErr *gateway.HostError
	if errors.As(err, &hostErr) {
		data := HostErrorResponse{
			Number:   hostErr.Number,
			Text:     hostErr.Text,
			PacketID: hostErr.PacketID,
		}
		if resp != nil {
			data.Response = NewVenueResponse(resp, false)
		}
		sendJSON(w, code, APIResponse{Success: false, Data: data, Error: err.Error()})
		return
	}
	sendError(w, err.Error(), code)
}
