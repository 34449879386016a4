package server

import (
	"encoding/json"
	"io"
	"net/http"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func writeOperationError(w http.ResponseWriter, err error) {
	switch errorCode(err) {
	case "NotFound":
		writeError(w, http.StatusNotFound, err.Error())
	case "InvalidTransition", "SessionNotLive":
		writeError(w, http.StatusConflict, err.Error())
	case "SessionExpired":
		writeError(w, http.StatusGone, err.Error())
	case "JoinWindowClosed":
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "operation failed")
	}
}
