package domain

// User-visible result texts.
const (
	MessageSent           = "Message sent successfully!"
	MessageFieldsRequired = "All fields are required."
	MessageSendFailed     = "Failed to send email. Ensure server email configuration is correct."
	MessageSaveFailed     = "Failed to save message."
	MessageInvalidBody    = "Invalid request body."
)

// Result is the uniform response returned to the caller of the contact endpoint.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Succeeded returns the success result.
func Succeeded() Result {
	return Result{Success: true, Message: MessageSent}
}

// Failed returns a failure result carrying a caller-safe message.
func Failed(message string) Result {
	return Result{Success: false, Message: message}
}
