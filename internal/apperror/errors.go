// Package apperror defines the error kinds surfaced to API clients.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindUnprocessable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnprocessable:
		return "unprocessable"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind onto the response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Message codes. They double as i18n message ids.
const (
	CodeInternal           = "INTERNAL_ERROR"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeMissingDealer      = "MISSING_DEALER_CONTEXT"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeRequisitionMissing = "REQUISITION_NOT_FOUND"
	CodeJobCardMissing     = "JOB_CARD_NOT_FOUND"
	CodeProductMissing     = "PRODUCT_NOT_FOUND"
	CodeAlreadyProcessed   = "REQUISITION_ALREADY_PROCESSED"
	CodeDuplicateSKU       = "DUPLICATE_SKU"
	CodeResourceBusy       = "RESOURCE_BUSY"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeNegativeStock      = "NEGATIVE_STOCK"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetails attaches structured context for the client and returns e.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Unauthenticated(message string) *Error {
	return New(KindUnauthenticated, CodeUnauthenticated, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, CodeForbidden, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

func Unprocessable(code, message string) *Error {
	return New(KindUnprocessable, code, message)
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal server error", Err: err}
}

// From returns the *Error in err's chain, or wraps err as internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return From(err).Kind
}

func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
