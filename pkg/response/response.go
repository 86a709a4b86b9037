package response

import (
	"encoding/json"
	"net/http"
)

// Machine-readable error codes carried alongside the human-readable
// message. CodeTokenExpired in particular is what clients key their
// silent-refresh logic on.
const (
	CodeValidation         = "VALIDATION"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternal           = "INTERNAL"
)

// NewTokenHeader carries an out-of-band token renewal on an otherwise
// unrelated response.
const NewTokenHeader = "X-New-Token"

type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

func Error(w http.ResponseWriter, statusCode int, code, msg string) {
	JSON(w, statusCode, ErrorBody{Error: msg, Code: code})
}

func BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, CodeValidation, msg)
}

func Unauthorized(w http.ResponseWriter, code, msg string) {
	Error(w, http.StatusUnauthorized, code, msg)
}

func NotFound(w http.ResponseWriter, msg string) {
	Error(w, http.StatusNotFound, CodeNotFound, msg)
}

func InternalError(w http.ResponseWriter, msg string) {
	Error(w, http.StatusInternalServerError, CodeInternal, msg)
}
