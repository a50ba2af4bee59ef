package common

const (
	// MaxContactRequestBody limits JSON request bodies for the contact endpoint.
	MaxContactRequestBody = 1 << 20
)
