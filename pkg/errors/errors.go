package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation              Code = "VALIDATION_ERROR"
	CodeInvalidCode             Code = "INVALID_CODE"
	CodeCodeExpired             Code = "CODE_EXPIRED"
	CodeNotApplicable           Code = "NOT_APPLICABLE"
	CodeMinimumOrderNotMet      Code = "MINIMUM_ORDER_NOT_MET"
	CodeUsageLimitExceeded      Code = "USAGE_LIMIT_EXCEEDED"
	CodeInsufficientStock       Code = "INSUFFICIENT_STOCK"
	CodeInsufficientPoints      Code = "INSUFFICIENT_POINTS"
	CodeOutOfRange              Code = "OUT_OF_RANGE"
	CodePaymentFailed           Code = "PAYMENT_FAILED"
	CodeInvalidStatusTransition Code = "INVALID_STATUS_TRANSITION"
	CodeCancellationNotAllowed  Code = "CANCELLATION_NOT_ALLOWED"
	CodeUnauthorized            Code = "UNAUTHORIZED"
	CodeForbidden               Code = "FORBIDDEN"
	CodeNotFound                Code = "NOT_FOUND"
	CodeConflict                Code = "CONFLICT"
	CodeInternal                Code = "INTERNAL_ERROR"
	CodeDependency              Code = "DEPENDENCY_ERROR"
)

// Category groups codes by how callers should react to them.
type Category string

const (
	CategoryValidation       Category = "VALIDATION"
	CategoryBusinessRule     Category = "BUSINESS_RULE"
	CategoryResourceConflict Category = "RESOURCE_CONFLICT"
	CategoryExternalFailure  Category = "EXTERNAL_FAILURE"
	CategoryAuthorization    Category = "AUTHORIZATION"
	CategoryInvalidState     Category = "INVALID_STATE"
	CategoryInternal         Category = "INTERNAL"
)

type Metadata struct {
	HTTPStatus     int
	Category       Category
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		Category:       CategoryValidation,
		Retryable:      false,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeInvalidCode: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Category:       CategoryBusinessRule,
		Retryable:      false,
		PublicMessage:  "discount code not recognised",
		DetailsAllowed: true,
	},
	CodeCodeExpired: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Category:       CategoryBusinessRule,
		Retryable:      false,
		PublicMessage:  "discount code expired",
		DetailsAllowed: true,
	},
	CodeNotApplicable: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Category:       CategoryBusinessRule,
		Retryable:      false,
		PublicMessage:  "discount code not applicable to this order",
		DetailsAllowed: true,
	},
	CodeMinimumOrderNotMet: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Category:       CategoryBusinessRule,
		Retryable:      false,
		PublicMessage:  "order value below the required minimum",
		DetailsAllowed: true,
	},
	CodeUsageLimitExceeded: {
		HTTPStatus:     http.StatusConflict,
		Category:       CategoryResourceConflict,
		Retryable:      true,
		PublicMessage:  "discount code usage limit reached",
		DetailsAllowed: true,
	},
	CodeInsufficientStock: {
		HTTPStatus:     http.StatusConflict,
		Category:       CategoryResourceConflict,
		Retryable:      true,
		PublicMessage:  "insufficient stock",
		DetailsAllowed: true,
	},
	CodeInsufficientPoints: {
		HTTPStatus:     http.StatusConflict,
		Category:       CategoryResourceConflict,
		Retryable:      false,
		PublicMessage:  "insufficient loyalty points",
		DetailsAllowed: true,
	},
	CodeOutOfRange: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Category:       CategoryBusinessRule,
		Retryable:      false,
		PublicMessage:  "address outside every delivery zone",
		DetailsAllowed: true,
	},
	CodePaymentFailed: {
		HTTPStatus:     http.StatusPaymentRequired,
		Category:       CategoryExternalFailure,
		Retryable:      false,
		PublicMessage:  "payment was declined",
		DetailsAllowed: true,
	},
	CodeInvalidStatusTransition: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Category:       CategoryInvalidState,
		Retryable:      false,
		PublicMessage:  "status transition disallowed",
		DetailsAllowed: true,
	},
	CodeCancellationNotAllowed: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Category:       CategoryInvalidState,
		Retryable:      false,
		PublicMessage:  "order can no longer be cancelled",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:     http.StatusUnauthorized,
		Category:       CategoryAuthorization,
		Retryable:      false,
		PublicMessage:  "authentication required",
		DetailsAllowed: false,
	},
	CodeForbidden: {
		HTTPStatus:     http.StatusForbidden,
		Category:       CategoryAuthorization,
		Retryable:      false,
		PublicMessage:  "access denied",
		DetailsAllowed: false,
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		Category:       CategoryValidation,
		Retryable:      false,
		PublicMessage:  "resource not found",
		DetailsAllowed: false,
	},
	CodeConflict: {
		HTTPStatus:     http.StatusConflict,
		Category:       CategoryResourceConflict,
		Retryable:      false,
		PublicMessage:  "conflict detected",
		DetailsAllowed: false,
	},
	CodeInternal: {
		HTTPStatus:     http.StatusInternalServerError,
		Category:       CategoryInternal,
		Retryable:      true,
		PublicMessage:  "internal server error",
		DetailsAllowed: false,
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Category:       CategoryInternal,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
