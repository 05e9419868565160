package models

// UpdateStatusResponse is the dual success envelope for status updates.
// The boolean `success` field exists for older callers that predate the
// string `status` discriminator; both are always emitted.
type UpdateStatusResponse struct {
	Status  string `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SuccessResponse builds the success envelope.
func SuccessResponse(message string) UpdateStatusResponse {
	return UpdateStatusResponse{Status: "success", Success: true, Message: message}
}

// ErrorResponse builds the error envelope.
func ErrorResponse(message string) UpdateStatusResponse {
	return UpdateStatusResponse{Status: "error", Success: false, Message: message}
}
