package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrResponse writes a uniform JSON error envelope and aborts the gin
// handler chain, matching the {"message": ...} shape every endpoint uses.
func ErrResponse(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, errorResponse{Message: err.Error()})
}

type errorResponse struct {
	Message string `json:"message"`
}

// ErrorStatus maps a tagged error to the HTTP status it should produce.
// Domain and client-input errors are 400s; anything else is a 500.
func ErrorStatus(err error) int {
	switch err.(type) {
	case ClientError, NotFoundError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ClientError is returned when a request is malformed or refers to input
// that can never resolve (bad address, bad chain name).
type ClientError struct {
	Err error
}

func (e ClientError) Error() string { return e.Err.Error() }
func (e ClientError) Unwrap() error { return e.Err }

// NotFoundError is returned when a lookup targets a resource that does not
// exist (unknown contract, unknown username).
type NotFoundError struct {
	Err error
}

func (e NotFoundError) Error() string { return e.Err.Error() }
func (e NotFoundError) Unwrap() error { return e.Err }

// ToPointer returns a pointer to a copy of v, handy for optional struct
// fields and logrus.Level options.
func ToPointer[T any](v T) *T {
	return &v
}
