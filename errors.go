package popquiz

import "errors"

var (
	// ErrUpstreamUnavailable covers network errors, timeouts and non-success
	// replies from the completion endpoint.
	ErrUpstreamUnavailable = errors.New("language model unavailable")
	ErrDuplicateSubmission = errors.New("submission already exists for this quiz and student")
	ErrInvalidIndex        = errors.New("question index out of range")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrNotAuthorized       = errors.New("not authorized for this quiz")
	ErrInvalidRequest      = errors.New("invalid request")

	errParseYieldedNothing = errors.New("format parse yielded no questions")
)
