package error

import "net/http"

type deliveryError string

// DeliveryError wraps a messaging-gateway failure as a typed error.
func DeliveryError(message string) deliveryError {
	return deliveryError(message)
}

func (err deliveryError) Error() string {
	return string(err)
}

func (err deliveryError) ErrCode() string {
	return "DELIVERY_ERROR"
}

func (err deliveryError) StatusCode() int {
	return http.StatusBadGateway
}
