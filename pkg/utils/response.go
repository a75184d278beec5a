package utils

import "github.com/AzielCF/az-remind/pkg/phone"

// ResponseData is the uniform JSON envelope returned by every REST handler.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics on a non-nil error so the recovery middleware can map
// typed errors to their HTTP responses.
func PanicIfNeeded(err error, message ...string) {
	if err != nil {
		if len(message) > 0 {
			panic(message[0])
		}
		panic(err)
	}
}

// SanitizePhone normalizes a request phone field in place.
func SanitizePhone(raw *string) {
	if raw == nil {
		return
	}
	*raw = phone.Normalize(*raw)
}
