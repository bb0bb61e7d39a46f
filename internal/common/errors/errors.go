package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode представляет код ошибки
type ErrorCode string

const (
	// Общие ошибки
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"

	// Кошельки и рефералы
	ErrCodeWalletNotFound ErrorCode = "WALLET_NOT_FOUND"
	ErrCodeInvalidWallet  ErrorCode = "INVALID_WALLET"

	// Стейкинг
	ErrCodeStakeNotFound        ErrorCode = "STAKE_NOT_FOUND"
	ErrCodeInvalidAmount        ErrorCode = "INVALID_AMOUNT"
	ErrCodeStakeAlreadyUnlocked ErrorCode = "STAKE_ALREADY_UNLOCKED"
	ErrCodeStakeLocked          ErrorCode = "STAKE_LOCKED"
	ErrCodeDuplicateTxHash      ErrorCode = "DUPLICATE_TX_HASH"

	// Ошибки базы данных
	ErrCodeDatabaseError     ErrorCode = "DATABASE_ERROR"
	ErrCodeTransactionFailed ErrorCode = "TRANSACTION_FAILED"
	ErrCodeConnectionFailed  ErrorCode = "CONNECTION_FAILED"
)

// AppError представляет типизированную ошибку приложения
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Stack     []string               `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Wallet    string                 `json:"wallet_address,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsNotFound проверяет, является ли ошибка ошибкой "не найдено"
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound ||
		e.Code == ErrCodeWalletNotFound ||
		e.Code == ErrCodeStakeNotFound
}

// IsValidation проверяет, является ли ошибка ошибкой валидации
func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation ||
		e.Code == ErrCodeInvalidWallet ||
		e.Code == ErrCodeInvalidAmount ||
		e.Code == ErrCodeBadRequest
}

// IsConflict reports state conflicts: already unlocked, still locked, replayed tx hash.
func (e *AppError) IsConflict() bool {
	return e.Code == ErrCodeConflict ||
		e.Code == ErrCodeStakeAlreadyUnlocked ||
		e.Code == ErrCodeStakeLocked ||
		e.Code == ErrCodeDuplicateTxHash
}

// IsUnauthorized проверяет, является ли ошибка ошибкой авторизации
func (e *AppError) IsUnauthorized() bool {
	return e.Code == ErrCodeUnauthorized || e.Code == ErrCodeForbidden
}

// IsInternal проверяет, является ли ошибка внутренней ошибкой
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeDatabaseError ||
		e.Code == ErrCodeTransactionFailed ||
		e.Code == ErrCodeConnectionFailed
}

// WithContext добавляет контекст к ошибке
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail добавляет детальную информацию к ошибке
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func (e *AppError) WithWallet(wallet string) *AppError {
	e.Wallet = wallet
	return e
}

// New создает новую ошибку приложения. Стек сохраняется только для внутренних ошибок.
func New(code ErrorCode, message string) *AppError {
	e := &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
	if e.IsInternal() {
		e.Stack = getStackTrace()
	}
	return e
}

// Wrap оборачивает существующую ошибку
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		// Пропускаем внутренние функции пакета errors
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

// Конструкторы для часто используемых ошибок

// NewValidationError создает ошибку валидации
func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// NewInvalidAmountError is a validation error for a stake principal.
func NewInvalidAmountError(raw string, reason string) *AppError {
	return New(ErrCodeInvalidAmount, fmt.Sprintf("Invalid amount: %s", reason)).
		WithDetail("field", "amount").
		WithDetail("value", raw).
		WithDetail("reason", reason)
}

// NewNotFoundError создает ошибку "не найдено"
func NewNotFoundError(resource, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewWalletNotFoundError(wallet string) *AppError {
	return New(ErrCodeWalletNotFound, "User not found").
		WithDetail("wallet_address", wallet).
		WithWallet(wallet)
}

func NewStakeNotFoundError(stakeID int64) *AppError {
	return New(ErrCodeStakeNotFound, fmt.Sprintf("Stake not found: %d", stakeID)).
		WithDetail("staking_id", stakeID)
}

// NewStakeAlreadyUnlockedError is returned when an unlock is replayed.
func NewStakeAlreadyUnlockedError(stakeID int64) *AppError {
	return New(ErrCodeStakeAlreadyUnlocked, "Stake has already been unlocked").
		WithDetail("staking_id", stakeID)
}

// NewStakeLockedError carries the whole days left until the stake matures.
func NewStakeLockedError(stakeID int64, daysRemaining int) *AppError {
	return New(ErrCodeStakeLocked, fmt.Sprintf("%d days remaining until unlock", daysRemaining)).
		WithDetail("staking_id", stakeID).
		WithDetail("days_remaining", daysRemaining)
}

func NewDuplicateTxHashError(txHash string) *AppError {
	return New(ErrCodeDuplicateTxHash, "Stake with this transaction hash already exists").
		WithDetail("tx_hash", txHash)
}

// NewUnauthorizedError создает ошибку авторизации
func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason)).
		WithDetail("reason", reason)
}

// NewForbiddenError создает ошибку доступа
func NewForbiddenError(reason string) *AppError {
	return New(ErrCodeForbidden, fmt.Sprintf("Forbidden: %s", reason)).
		WithDetail("reason", reason)
}

// NewDatabaseError создает ошибку базы данных
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewTransactionError reports a rolled back settlement.
func NewTransactionError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeTransactionFailed, fmt.Sprintf("Transaction rolled back: %s", operation)).
		WithDetail("operation", operation)
}

// NewRateLimitError создает ошибку превышения лимита запросов
func NewRateLimitError(retryAfter time.Duration) *AppError {
	return New(ErrCodeTooManyRequests, "Rate limit exceeded").
		WithDetail("retry_after", retryAfter.String())
}

// NewConflictError создает ошибку конфликта
func NewConflictError(resource, reason string) *AppError {
	return New(ErrCodeConflict, fmt.Sprintf("Conflict with %s: %s", resource, reason)).
		WithDetail("resource", resource).
		WithDetail("reason", reason)
}

// AsAppError приводит ошибку к AppError, просматривая цепочку обёрток
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil {
		return nil, false
	}
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
