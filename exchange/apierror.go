package exchange

//
// APIError is implemented by errors that an exchange reported as a first-class error payload, as
// opposed to a bare HTTP failure (see HTTPError). Use errors.As to detect one.
//
type APIError interface {
	error

	// Code returns the exchange's own error code.
	Code() int

	// Message returns the exchange's own human readable explanation.
	Message() string
}
