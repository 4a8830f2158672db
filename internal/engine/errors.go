package engine

import "fmt"

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError(table, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s with id %s not found", table, id),
	}
}

func UnknownTableError(name string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_TABLE",
		Status:  404,
		Message: fmt.Sprintf("Unknown table: %s", name),
	}
}

func ValidationError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  422,
		Message: "Validation failed",
		Details: details,
	}
}

func InvalidPayloadError(msg string) *AppError {
	return &AppError{
		Code:    "INVALID_PAYLOAD",
		Status:  400,
		Message: msg,
	}
}

func UnauthenticatedError() *AppError {
	return &AppError{
		Code:    "UNAUTHENTICATED",
		Status:  401,
		Message: "Authentication required",
	}
}

func ForbiddenError(msg string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Status:  403,
		Message: msg,
	}
}

func InvalidCredentialsError() *AppError {
	return &AppError{
		Code:    "INVALID_CREDENTIALS",
		Status:  401,
		Message: "Invalid username or password",
	}
}

func ConflictError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Status:  409,
		Message: "Record conflicts with an existing one",
		Details: details,
	}
}

func InternalError() *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Status:  500,
		Message: "Internal server error",
	}
}
