package dto

// ErrorResponse represents a standardized error response for the API
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Shortfall string `json:"shortfall,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}
