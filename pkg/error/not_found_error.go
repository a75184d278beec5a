package error

import "net/http"

type notFoundError string

// NotFoundError wraps a missing-record message as a typed error.
func NotFoundError(message string) notFoundError {
	return notFoundError(message)
}

func (err notFoundError) Error() string {
	return string(err)
}

func (err notFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err notFoundError) StatusCode() int {
	return http.StatusNotFound
}
