package domain

import "errors"

var (
	// ErrNoQuiz is returned when an operation needs generated content that is not present.
	ErrNoQuiz = errors.New("no quiz content loaded")
	// ErrInvalidTransition is returned when an operation is illegal in the current game state.
	ErrInvalidTransition = errors.New("invalid game state transition")
	// ErrAlreadyAnswered rejects a second submission for a question that was already scored.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrCooldownActive rejects progress while a rate-limit cooldown is counting down.
	ErrCooldownActive = errors.New("cooldown active")
	// ErrOperationInFlight rejects a second concurrent generate/skip/replace call.
	ErrOperationInFlight = errors.New("operation already in flight")
	// ErrHintsExhausted is returned when the shared hint budget has reached zero.
	ErrHintsExhausted = errors.New("no hints remaining")
	// ErrBlockingError rejects input while a structured error awaits dismissal.
	ErrBlockingError = errors.New("blocking error must be dismissed first")
	// ErrConfirmationPending rejects input while a confirmation gate is open.
	ErrConfirmationPending = errors.New("confirmation pending")
	// ErrMissingCredential short-circuits AI-only actions when no API credential is configured.
	ErrMissingCredential = errors.New("missing AI credential")
	// ErrQuestionIndex is returned for an out-of-range question index.
	ErrQuestionIndex = errors.New("question index out of range")
	// ErrQuizNotFound indicates the library has no quiz for the requested theme.
	ErrQuizNotFound = errors.New("quiz not found")
)
