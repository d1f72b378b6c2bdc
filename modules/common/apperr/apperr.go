// Package apperr defines the tagged error taxonomy shared by every pipeline
// stage. A stage fails fast with one of these kinds; the HTTP boundary maps
// the kind to a status code and emits exactly one error envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	Unexpected Kind = iota
	MethodNotAllowed
	RateLimited
	Parse
	MissingFields
	InvalidFileType
	FileTooLarge
	NoFile
	Transform
	StoreUpload
	GenerationService
)

func (k Kind) String() string {
	switch k {
	case MethodNotAllowed:
		return "method_not_allowed"
	case RateLimited:
		return "rate_limited"
	case Parse:
		return "parse_error"
	case MissingFields:
		return "missing_fields"
	case InvalidFileType:
		return "invalid_file_type"
	case FileTooLarge:
		return "file_too_large"
	case NoFile:
		return "no_file"
	case Transform:
		return "transform_error"
	case StoreUpload:
		return "store_upload_error"
	case GenerationService:
		return "generation_service_error"
	default:
		return "unexpected_error"
	}
}

// HTTPStatus - Kind에 대응하는 HTTP 상태 코드
func (k Kind) HTTPStatus() int {
	switch k {
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case RateLimited:
		return http.StatusTooManyRequests
	case Parse, MissingFields, InvalidFileType, FileTooLarge, NoFile:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a failure kind, a caller-facing message and the wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New - cause 없는 에러 생성
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap - cause를 감싼 에러 생성
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind of err, or Unexpected for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unexpected
}

// MessageOf returns the caller-facing message for err. Untagged errors get a
// generic message so internal detail never leaks into responses.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Image generation failed"
}

// Is reports whether err is tagged with kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
