package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/service"
)

// The provider wire contract: every logical outcome is HTTP 200 with a
// code field, 1 for success and 0 for failure. Transport-level non-200
// is reserved for malformed requests and hard internal errors.
const (
	codeFailure = 0
	codeSuccess = 1
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, msg string, extra map[string]any) {
	body := map[string]any{"code": codeSuccess, "msg": msg}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func writeFailure(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]any{"code": codeFailure, "msg": msg})
}

// failureMessage maps service errors onto the fixed provider-facing
// message set. Unknown errors collapse to a generic message so internal
// detail never leaks onto the wire.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrUnknownSite):
		return "Invalid site"
	case errors.Is(err, service.ErrInvalidToken):
		return "Invalid token"
	case errors.Is(err, service.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, service.ErrInsufficientBalance):
		return "Insufficient balance"
	case errors.Is(err, service.ErrLedgerFailure):
		return "Transaction failed"
	case errors.Is(err, service.ErrRoomUnavailable):
		return "Room not available for your balance level"
	case errors.Is(err, service.ErrInvalidProvider):
		return "Invalid provider"
	case errors.Is(err, service.ErrUpstream):
		return "External API error"
	default:
		return "Internal error"
	}
}
