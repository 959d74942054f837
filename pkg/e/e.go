package e

import "fmt"

var (
	// Ошибки ядра визуального поиска
	ErrInvalidImage      = fmt.Errorf("invalid image")
	ErrNotFound          = fmt.Errorf("not found")
	ErrNetwork           = fmt.Errorf("network error")
	ErrEncodingFailure   = fmt.Errorf("encoding failure")
	ErrCorruptIndex      = fmt.Errorf("corrupt index")
	ErrInvalidParameter  = fmt.Errorf("invalid parameter")
	ErrRebuildInProgress = fmt.Errorf("rebuild in progress")
	ErrRebuildFailed     = fmt.Errorf("rebuild failed")

	// Внутренние ошибки
	ErrTransactionNotFound  = fmt.Errorf("transaction not found")
	ErrCacheMiss            = fmt.Errorf("image cache miss")
	ErrStaleIndexVersion    = fmt.Errorf("stale index version")
	ErrZeroVector           = fmt.Errorf("vector has zero norm")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// 400 Bad Request
	ErrProductNameRequired  = fmt.Errorf("product name is required")
	ErrCategoryRequired     = fmt.Errorf("product category is required")
	ErrImageRefRequired     = fmt.Errorf("image reference is required")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 5xx
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
