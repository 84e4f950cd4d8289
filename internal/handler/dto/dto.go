// Package dto provides Data Transfer Objects for API requests and responses.
// The HTTP client decodes the same types, so both sides share one wire format.
package dto

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
