package bedrock

import "errors"

var (
	// ErrUnsupportedModel is returned for model ids outside the known families.
	ErrUnsupportedModel = errors.New("bedrock: unsupported model")
	// ErrMalformedResponse is returned when a response body cannot be decoded.
	ErrMalformedResponse = errors.New("bedrock: malformed response")
	// ErrEmptyCompletion is returned when a response carries no text.
	ErrEmptyCompletion = errors.New("bedrock: empty completion")
)
