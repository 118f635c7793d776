package domain

import "errors"

// Kind classifies an error so transports can map it to a status code and
// clients can tell a timing race from bad input or an outage.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindAuthorization
	KindUnavailable
)

// Error is a rejected command with a machine-readable reason.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the Kind from err, or 0 for untyped errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// ReasonOf extracts the discriminated reason from err, or "".
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}

// StoreFailure wraps a persistence error as a retryable failure.
func StoreFailure(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindUnavailable, Reason: "store_failure", Message: "session store unavailable: " + err.Error(), cause: err}
}

var (
	// ErrInvalidCode is returned for codes outside the 6-char A-Z0-9 charset.
	ErrInvalidCode = &Error{Kind: KindValidation, Reason: "invalid_code", Message: "session code must be 6 uppercase letters or digits"}
	// ErrMissingHost is returned when a session is created without a host identity.
	ErrMissingHost = &Error{Kind: KindValidation, Reason: "missing_host", Message: "host wallet is required"}
	// ErrEmptyQuiz is returned when the quiz snapshot has no questions.
	ErrEmptyQuiz = &Error{Kind: KindValidation, Reason: "empty_quiz", Message: "quiz must have at least one question"}
	// ErrNoCorrectOption is returned when a question has no correct option.
	ErrNoCorrectOption = &Error{Kind: KindValidation, Reason: "no_correct_option", Message: "every question must have at least one correct option"}
	// ErrNegativePrize is returned for prize amounts below zero.
	ErrNegativePrize = &Error{Kind: KindValidation, Reason: "negative_prize", Message: "prize amount must not be negative"}
	// ErrMissingFields is returned when a command omits required identifiers.
	ErrMissingFields = &Error{Kind: KindValidation, Reason: "missing_fields", Message: "required fields are missing"}

	// ErrSessionNotFound is returned when no session matches a code or id.
	ErrSessionNotFound = &Error{Kind: KindNotFound, Reason: "session_not_found", Message: "quiz session not found"}
	// ErrQuizNotFound indicates the referenced quiz content could not be loaded.
	ErrQuizNotFound = &Error{Kind: KindNotFound, Reason: "quiz_not_found", Message: "quiz not found"}
	// ErrParticipantNotFound is returned when a user acts before joining.
	ErrParticipantNotFound = &Error{Kind: KindNotFound, Reason: "participant_not_found", Message: "participant not found in session"}
	// ErrOptionNotFound indicates a submitted option id is invalid.
	ErrOptionNotFound = &Error{Kind: KindNotFound, Reason: "option_not_found", Message: "option not found"}

	// ErrAlreadyStarted rejects joins once the session left the waiting state.
	ErrAlreadyStarted = &Error{Kind: KindConflict, Reason: "already_started", Message: "quiz has already started"}
	// ErrSessionEnded rejects commands against a finished session.
	ErrSessionEnded = &Error{Kind: KindConflict, Reason: "session_ended", Message: "quiz has ended"}
	// ErrNotWaiting rejects a start against a session that already ran.
	ErrNotWaiting = &Error{Kind: KindConflict, Reason: "not_waiting", Message: "quiz is not waiting to start"}
	// ErrNotActive rejects advance/end/answer while the session is not active.
	ErrNotActive = &Error{Kind: KindConflict, Reason: "not_active", Message: "quiz is not active"}
	// ErrStaleQuestion rejects answers that reference a non-current question.
	ErrStaleQuestion = &Error{Kind: KindConflict, Reason: "stale_question", Message: "question is not the current question"}
	// ErrAlreadyAnswered rejects a second answer for the same question.
	ErrAlreadyAnswered = &Error{Kind: KindConflict, Reason: "already_answered", Message: "already answered this question"}
	// ErrNotEnded rejects a results read before the session finished.
	ErrNotEnded = &Error{Kind: KindConflict, Reason: "not_ended", Message: "quiz has not ended yet"}

	// ErrNotHost rejects control commands from a non-host identity.
	ErrNotHost = &Error{Kind: KindAuthorization, Reason: "not_host", Message: "only the host may control this quiz"}
)
