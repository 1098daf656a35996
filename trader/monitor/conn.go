package monitor

import (
	ws "github.com/gorilla/websocket"
)

const (
	FeedURL = "wss://ws-feed.pro.coinbase.com"
)

//
// Conn is the subset of a websocket connection that the monitor service relies upon. The
// gorilla/websocket connection satisfies it.
//
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

//
// Dialer opens a connection to the websocket feed at the provided URL.
//
type Dialer func(url string) (Conn, error)

//
// DialWebsocket is the default Dialer. It connects with the gorilla/websocket default dialer.
//
func DialWebsocket(url string) (Conn, error) {
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	return conn, nil
}
