package error

// GenericError is implemented by every typed application error so the REST
// layer can map it to a response code without inspecting concrete types.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
