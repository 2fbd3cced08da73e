package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrCandidateNotFound ErrCode = "CANDIDATE_NOT_FOUND"
	ErrConflict          ErrCode = "CONFLICT"

	// ─── Interview-specific ────────────────────────────────────────────
	ErrAnswerAlreadySubmitted ErrCode = "ANSWER_ALREADY_SUBMITTED"
	ErrQuestionNotActive      ErrCode = "QUESTION_NOT_ACTIVE"
	ErrSubmissionInFlight     ErrCode = "SUBMISSION_IN_FLIGHT"
	ErrInterviewNotActive     ErrCode = "INTERVIEW_NOT_ACTIVE"
	ErrArchiveDisabled        ErrCode = "ARCHIVE_DISABLED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrCandidateNotFound:
		return "Candidate not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Interview-specific ────────────────────────────────────────────
	case ErrAnswerAlreadySubmitted:
		return "An answer was already submitted for this question."
	case ErrQuestionNotActive:
		return "This question is not the current question."
	case ErrSubmissionInFlight:
		return "Another answer is still being evaluated. Please wait."
	case ErrInterviewNotActive:
		return "The interview is not in progress."
	case ErrArchiveDisabled:
		return "The results archive is not configured."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
