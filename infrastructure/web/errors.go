package web

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is a bare {"error": msg} body.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"-"`
}

// NewError answers 500 with msg.
func NewError(msg string) ErrorResponse {
	return ErrorResponse{Error: msg, Status: http.StatusInternalServerError}
}

func (e ErrorResponse) Encode() ([]byte, string, error) {
	data, err := json.Marshal(e)
	return data, "application/json; charset=utf-8", err
}

func (e ErrorResponse) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}
