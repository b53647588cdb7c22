package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorCode 服务层错误码
type ErrorCode int

const (
	CodeDatabase ErrorCode = iota + 1000
	CodeNotFound
	CodeConflict
	CodeInvalidInput
	CodeUnauthorized
	CodeStorage
	CodeInternal
)

// Error 定义服务层错误
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Sentinels for errors.Is; matching is by Code only.
var (
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "not found"}
	ErrConflict     = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInvalidInput = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError 创建新的服务错误
func NewError(code ErrorCode, message string) error {
	return &Error{Code: code, Message: message}
}

// WrapError 包装已有错误
func WrapError(code ErrorCode, message string, err error) error {
	return &Error{Code: code, Message: message, Err: err}
}

// GetErrorCode 获取错误码，非服务错误一律视为内部错误
func GetErrorCode(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}

// dbError maps gorm's not-found to CodeNotFound and everything else to
// CodeDatabase. what names the looked-up entity, e.g. "post".
func dbError(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return WrapError(CodeNotFound, what+" not found", err)
	}
	return WrapError(CodeDatabase, "query "+what, err)
}
