// Package errors defines the categorized error type shared by all services.
// Handlers translate a ServiceError into an HTTP status via StatusCode; the
// wrapped cause stays out of responses and goes to the logs only.
package errors

import (
	"errors"
	"net/http"
)

// Category classifies a service failure for transport mapping.
type Category int

const (
	// CategoryGeneralError is an unexpected internal failure.
	CategoryGeneralError Category = iota
	// CategoryDataError covers invalid request payloads or parameters.
	CategoryDataError
	// CategoryUnauthorized means the caller presented no or bad credentials.
	CategoryUnauthorized
	// CategoryForbidden means the caller is known but not allowed.
	CategoryForbidden
	// CategoryResourceNotFound means the addressed resource does not exist.
	CategoryResourceNotFound
	// CategoryDataConflict means the request contradicts recorded state.
	CategoryDataConflict
	// CategoryDependencyFailure means a downstream dependency is failing.
	CategoryDependencyFailure
)

var categoryNames = map[Category]string{
	CategoryGeneralError:      "CategoryGeneralError",
	CategoryDataError:         "CategoryDataError",
	CategoryUnauthorized:      "CategoryUnauthorized",
	CategoryForbidden:         "CategoryForbidden",
	CategoryResourceNotFound:  "CategoryResourceNotFound",
	CategoryDataConflict:      "CategoryDataConflict",
	CategoryDependencyFailure: "CategoryDependencyFailure",
}

var categoryStatus = map[Category]int{
	CategoryGeneralError:      http.StatusInternalServerError,
	CategoryDataError:         http.StatusBadRequest,
	CategoryUnauthorized:      http.StatusUnauthorized,
	CategoryForbidden:         http.StatusForbidden,
	CategoryResourceNotFound:  http.StatusNotFound,
	CategoryDataConflict:      http.StatusConflict,
	CategoryDependencyFailure: http.StatusBadGateway,
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "CategoryGeneralError"
}

// ServiceError carries a user-facing Message and an internal cause.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is matches on the user-facing message.
func (err ServiceError) Is(target error) bool {
	return err.Message == target.Error()
}

// StatusCode maps the category to an HTTP status.
func (err ServiceError) StatusCode() int {
	if code, ok := categoryStatus[err.Category]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Is reports whether err is a ServiceError with the given category.
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Category == cat
}

func newError(cat Category, message string, err error) error {
	if err == nil {
		err = errors.New(message)
	}
	return &ServiceError{Category: cat, Message: message, Err: err}
}

// GeneralError hides err behind a generic internal-error message.
func GeneralError(err error) error {
	return newError(CategoryGeneralError, "Internal Server Error", err)
}

// BadRequestError reports invalid request data. The message is returned to
// the caller; err is kept for the logs.
func BadRequestError(err error, message string) error {
	return newError(CategoryDataError, message, err)
}

// UnAuthorizedError reports missing or failed authentication.
func UnAuthorizedError(err error, message string) error {
	return newError(CategoryUnauthorized, message, err)
}

// ForbiddenError reports a request the caller is not permitted to make.
func ForbiddenError(err error, message string) error {
	return newError(CategoryForbidden, message, err)
}

// ResourceNotFoundError reports that the addressed resource does not exist.
func ResourceNotFoundError(err error, message string) error {
	return newError(CategoryResourceNotFound, message, err)
}

// ConflictError reports a request that contradicts recorded state.
func ConflictError(err error, message string) error {
	return newError(CategoryDataConflict, message, err)
}

// DependencyError reports a failing downstream dependency.
func DependencyError(err error, message string) error {
	return newError(CategoryDependencyFailure, message, err)
}
