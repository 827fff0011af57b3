// Package errors defines the service error taxonomy shared by every HTTP
// surface of the middleware.
//
// The categories encode the caller contract from the identity core: input
// errors are final and never retried, conflicts are business decisions,
// dependency outages are retriable with backoff, and everything else is an
// unexpected fault.
package errors

import (
	"errors"
	"net/http"
)

// Category classifies a service error for transport mapping and logging.
type Category int

const (
	// CategoryNoError is the zero value; it never leaves a constructor.
	CategoryNoError Category = iota
	// CategoryDataError marks invalid client input: bad finger counts,
	// empty minutiae, malformed helper parameters. Fix the input.
	CategoryDataError
	// CategoryUnauthorized marks a missing or failed credential.
	CategoryUnauthorized
	// CategoryForbidden marks an authenticated caller without rights.
	CategoryForbidden
	// CategoryResourceNotFound marks a lookup of a nonexistent record.
	CategoryResourceNotFound
	// CategoryDataConflict marks a collision with existing data, such as a
	// duplicate DID. A business outcome, never auto-resolved.
	CategoryDataConflict
	// CategoryDependencyFailure marks a failing downstream dependency.
	CategoryDependencyFailure
	// CategoryRecovering marks a dependency outage expected to pass, such
	// as an unreachable identity registry. Safe to retry with backoff.
	CategoryRecovering
	// CategoryGeneralError marks an unexpected internal fault.
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryDataError:
		return "CategoryDataError"
	case CategoryUnauthorized:
		return "CategoryUnauthorized"
	case CategoryForbidden:
		return "CategoryForbidden"
	case CategoryResourceNotFound:
		return "CategoryResourceNotFound"
	case CategoryDataConflict:
		return "CategoryDataConflict"
	case CategoryDependencyFailure:
		return "CategoryDependencyFailure"
	case CategoryRecovering:
		return "CategoryRecovering"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError carries a category, a user-safe message, and the underlying
// cause. The message goes to the client; the cause goes to the logs.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

// Error implements the error interface.
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying cause.
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is checks that provided error is a ServiceError with the desired category.
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Category == cat
}

// StatusCode maps the category to its HTTP status.
func (err ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryDataError:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryResourceNotFound:
		return http.StatusNotFound
	case CategoryDataConflict:
		return http.StatusConflict
	case CategoryDependencyFailure:
		return http.StatusBadGateway
	case CategoryRecovering:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// BadRequestError wraps an input error. The message is returned to the user.
func BadRequestError(err error, message string) error {
	if err == nil {
		err = errors.New("bad request: " + message)
	}
	return &ServiceError{Category: CategoryDataError, Message: message, Err: err}
}

// UnAuthorizedError wraps a credential failure.
func UnAuthorizedError(err error, message string) error {
	if err == nil {
		err = errors.New("unauthorized")
	}
	return &ServiceError{Category: CategoryUnauthorized, Message: message, Err: err}
}

// ForbiddenError wraps an authorization failure.
func ForbiddenError(err error, message string) error {
	if err == nil {
		err = errors.New("request forbidden")
	}
	return &ServiceError{Category: CategoryForbidden, Message: message, Err: err}
}

// NotFoundError wraps a missing-record lookup.
func NotFoundError(err error, message string) error {
	if err == nil {
		err = errors.New("resource not found: " + message)
	}
	return &ServiceError{Category: CategoryResourceNotFound, Message: message, Err: err}
}

// ConflictError wraps a collision with existing data.
func ConflictError(err error, message string) error {
	if err == nil {
		err = errors.New("conflict")
	}
	return &ServiceError{Category: CategoryDataConflict, Message: message, Err: err}
}

// UnavailableError wraps a dependency outage that callers may retry.
func UnavailableError(err error, message string) error {
	if err == nil {
		err = errors.New("service unavailable")
	}
	return &ServiceError{Category: CategoryRecovering, Message: message, Err: err}
}

// GeneralError wraps an unexpected fault. The user sees only a generic
// message; the cause stays in the logs.
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal server error")
	}
	return &ServiceError{Category: CategoryGeneralError, Message: "Internal Server Error", Err: err}
}
