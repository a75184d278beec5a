package error

import "net/http"

type validationError string

// ValidationError wraps an input validation message as a typed error.
func ValidationError(message string) validationError {
	return validationError(message)
}

func (err validationError) Error() string {
	return string(err)
}

func (err validationError) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err validationError) StatusCode() int {
	return http.StatusBadRequest
}
