package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202

	// Strategy errors (300-399)
	ErrCodeStrategyNotLoaded   ErrorCode = 300
	ErrCodeStrategyConfigError ErrorCode = 301
	ErrCodeUnsupportedStrategy ErrorCode = 302

	// Run errors (400-499)
	ErrCodeRunNoDatasource  ErrorCode = 400
	ErrCodeRunNoStrategy    ErrorCode = 401
	ErrCodeRunNoResultsDir  ErrorCode = 402
	ErrCodeRunWriteFailed   ErrorCode = 403
	ErrCodeRunProcessFailed ErrorCode = 404
)
