package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeSizeMismatch         ErrorCode = 101
	ErrCodeUnsortedSeries       ErrorCode = 102
	ErrCodeUnsortedTarget       ErrorCode = 103
	ErrCodeOutOfRange           ErrorCode = 104
	ErrCodeInvalidStrategy      ErrorCode = 105
	ErrCodeInvalidConfiguration ErrorCode = 106
	ErrCodeEmptySeries          ErrorCode = 107

	// Alignment errors (200-299)
	ErrCodeLengthMismatch    ErrorCode = 200
	ErrCodeTimestampMismatch ErrorCode = 201

	// Resampling errors (300-399)
	ErrCodeResampleFailed ErrorCode = 300

	// Data errors (400-499)
	ErrCodeDataUnavailable ErrorCode = 400
	ErrCodeDataFetchFailed ErrorCode = 401
	ErrCodeDataParseFailed ErrorCode = 402
	ErrCodeQueryFailed     ErrorCode = 403
	ErrCodeInvalidProvider ErrorCode = 404
)
