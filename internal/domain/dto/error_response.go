package dto

import "time"

// ErrorResponse is the JSON body of every failed API call.
//
// Fields:
//   - Message: short, client-facing description.
//   - ErrorDetails: the underlying error text, when there is one.
//   - Timestamp: when the error was produced (UTC).
type ErrorResponse struct {
	Message      string    `json:"message" example:"ticker not found"`
	ErrorDetails string    `json:"error_details,omitempty" example:"no rows for PETR9"`
	Timestamp    time.Time `json:"timestamp" example:"2024-01-31T10:00:00Z"`
}

// Error implements the error interface.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse stamped with the current time.
// err may be nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
