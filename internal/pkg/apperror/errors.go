package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest          ErrorCode = "BAD_REQUEST"
	ErrCodeConflict            ErrorCode = "CONFLICT"
	ErrCodeDuplicate           ErrorCode = "DUPLICATE"
	ErrCodeInvalidState        ErrorCode = "INVALID_STATE"
	ErrCodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError       ErrorCode = "DATABASE_ERROR"
	ErrCodeRateLimited         ErrorCode = "RATE_LIMITED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы errors.Is работал
// с обёрнутыми копиями sentinel-ошибок.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.Message == other.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation - короткая форма для ошибок валидации входных данных.
func Validation(err error) *AppError {
	return Wrap(err, ErrCodeValidation, err.Error())
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeDuplicate, ErrCodeInvalidState, ErrCodeConcurrencyConflict:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsDuplicate(err error) bool {
	return hasCode(err, ErrCodeDuplicate)
}

func IsInvalidState(err error) bool {
	return hasCode(err, ErrCodeInvalidState)
}

func IsConcurrencyConflict(err error) bool {
	return hasCode(err, ErrCodeConcurrencyConflict)
}

var (
	ErrRequestNotFound    = New(ErrCodeNotFound, "заявка не найдена")
	ErrServiceNotFound    = New(ErrCodeNotFound, "услуга не найдена")
	ErrUserNotFound       = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверное имя пользователя или пароль")
	ErrUserBlocked        = New(ErrCodeForbidden, "аккаунт заблокирован, обратитесь в поддержку")
	ErrUsernameTaken      = New(ErrCodeDuplicate, "имя пользователя уже занято")
	ErrServiceNameTaken   = New(ErrCodeDuplicate, "услуга с таким названием уже существует")
	ErrStaleRequest       = New(ErrCodeConcurrencyConflict, "заявка была изменена другим запросом, обновите данные")
	ErrDuplicateBid       = New(ErrCodeDuplicate, "вы уже откликнулись на эту заявку")
	ErrAlreadyAccepted    = New(ErrCodeInvalidState, "у заказчика уже есть принятая заявка этого специалиста по этой услуге")
)
