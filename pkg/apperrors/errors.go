package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDatasourceDisabled = errors.New("datasource is not configured")
	ErrRowLimitExceeded   = errors.New("result row limit exceeded")
)
