package binance

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/lukehollenback/gander/exchange"
	"github.com/lukehollenback/gander/trader/market"
	"github.com/valyala/fasthttp"
)

var (
	_ exchange.Client = (*Client)(nil)
)

//
// Client implements the exchange.Client interface for the Binance.US API.
//
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *fasthttp.Client
}

func NewClient() *Client {
	return NewClientWithBaseURL(BaseURL)
}

//
// NewClientWithBaseURL instantiates a client that talks to the API hosted at the provided base URL
// instead of the production one.
//
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &fasthttp.Client{},
	}
}

func (o *Client) Auth(key string, secret string) {
	o.apiKey = key
	o.apiSecret = secret
}

//
// Market implements the exchange.Client interface's described method. Binance.US names markets by
// concatenating the base and quote assets (e.g. BTC-USD is BTCUSD).
//
func (o *Client) Market(symbol market.Symbol) string {
	return strings.ToUpper(strings.ReplaceAll(symbol.String(), "-", ""))
}

func (o *Client) RetrieveCandles(
	ctx context.Context,
	market string,
	interval exchange.Interval,
	start time.Time,
	end time.Time,
	limit int,
) ([]exchange.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	//
	// Build the request.
	//
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(o.baseURL + CandlesPath)
	req.Header.SetMethod(fasthttp.MethodGet)

	if o.apiKey != "" {
		req.Header.Set(APIKeyHeader, o.apiKey)
	}

	queryArgs := req.URI().QueryArgs()
	queryArgs.Set("symbol", market)
	queryArgs.Set("interval", interval.String())
	queryArgs.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	queryArgs.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	queryArgs.Set("limit", strconv.Itoa(min(limit, MaxLimit)))

	//
	// Make the endpoint request and handle any errors along the way.
	//
	var err error

	if deadline, ok := ctx.Deadline(); ok {
		err = o.httpClient.DoDeadline(req, resp, deadline)
	} else {
		err = o.httpClient.Do(req, resp)
	}

	if err != nil {
		return nil, err
	}

	body := resp.Body()

	if resp.StatusCode() != fasthttp.StatusOK {
		if apiErr, ok := parseAPIError(body); ok {
			return nil, apiErr
		}

		return nil, exchange.NewHTTPErrorWithBody(resp.StatusCode(), body)
	}

	return parseCandles(body)
}
