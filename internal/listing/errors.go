package listing

import "fmt"

type AppError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
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

func InvalidSortColumnError(column string) *AppError {
	return &AppError{
		Code:    "INVALID_SORT_COLUMN",
		Status:  400,
		Message: fmt.Sprintf("Unsupported sort column: %s", column),
	}
}

func InvalidTimestampError(param string) *AppError {
	return &AppError{
		Code:    "INVALID_TIMESTAMP",
		Status:  400,
		Message: fmt.Sprintf("%s must be an ISO8601 timestamp", param),
	}
}

func NotFoundError(entity, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s with id %s not found", entity, id),
	}
}

func ForbiddenError(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: 403, Message: msg}
}

func InvalidTemplateError(msg string) *AppError {
	return &AppError{Code: "INVALID_TEMPLATE", Status: 400, Message: msg}
}
