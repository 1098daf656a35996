package binance

import (
	"fmt"

	"github.com/lukehollenback/gander/exchange"
	"github.com/tidwall/gjson"
)

var (
	_ exchange.APIError = (*APIError)(nil)
)

//
// APIError implements the exchange.APIError interface for errors returned from Binance.US API
// calls.
//
type APIError struct {
	code    int
	message string
}

//
// parseAPIError extracts an API error from the provided response body, if it holds one.
//
func parseAPIError(body []byte) (*APIError, bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}

	o := &APIError{
		code:    int(gjson.GetBytes(body, "code").Int()),
		message: gjson.GetBytes(body, "msg").String(),
	}

	return o, o.populated()
}

func (o *APIError) Code() int {
	return o.code
}

func (o *APIError) Message() string {
	return o.message
}

func (o *APIError) Error() string {
	return fmt.Sprintf(
		"the Binance.US endpoint returned an API error (code: %d, message: %s)",
		o.Code(), o.Message(),
	)
}

//
// populated returns whether or not the structure appears to actually hold an error. This is useful
// when determining whether or not the response payload was actually an error that fit into the
// structure's model or not.
//
func (o *APIError) populated() bool {
	return o.code != 0 && o.message != ""
}
