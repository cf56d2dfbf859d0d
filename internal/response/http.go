// Package response defines the JSON envelope shared by every API endpoint.
package response

// APIResponse wraps successful responses. Data carries the endpoint-specific
// payload; Message is a short human-readable note.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
