package core

import (
	"encoding/json"
	"net/http"
)

// Success codes of dynamic responses.
const (
	CodeOkSignup        = "ok_signup"
	CodeOkAuthenticated = "ok_authentication"
	CodeOkEmailVerified = "ok_email_verified"
	CodeOkOtpSent       = "ok_otp_sent"
	CodeOkCheckUser     = "ok_check_user"
	CodeOkUser          = "ok_user"
	CodeOkNotes         = "ok_notes"
	CodeOkNote          = "ok_note"
	CodeOkNoteCreated   = "ok_note_created"
	CodeOkNoteUpdated   = "ok_note_updated"
)

// JsonBasic contains the basic response fields. All responses must have them.
type JsonBasic struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JsonWithData is used for structured JSON responses with data.
type JsonWithData struct {
	JsonBasic
	Data any `json:"data,omitempty"`
}

// JsonError is the body of every failed request. WaitTime is in seconds.
type JsonError struct {
	JsonBasic
	WaitTime int               `json:"waitTime,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

func writeJson(w http.ResponseWriter, status int, body any) {
	setHeaders(w, HeadersJson)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeJsonWithData writes a structured JSON response with the provided data.
func writeJsonWithData(w http.ResponseWriter, status int, code, message string, data any) {
	writeJson(w, status, JsonWithData{
		JsonBasic: JsonBasic{Status: status, Code: code, Message: message},
		Data:      data,
	})
}
