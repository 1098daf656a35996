package monitor

type state int

const (
	disconnected state = iota // The monitor service has not yet attempted to establish a connection to the Coinbase Pro websocket API.
	connecting                // The monitor service is attempting to establish a connection to the Coinbase Pro websocket API.
	connected                 // The monitor service has connected to the Coinbase Pro websocket API.
	subscribed                // The monitor service has successfully subscribed to necessary message channels of the Coinbase Pro websocket API.
	ready                     // The monitor service has received the most recent known trade of at least one product and is thus producing observations.
	replaying                 // The monitor service is replaying historical candles from an exchange's REST API.
)

func (o state) String() string {
	return [...]string{"disconnected", "connecting", "connected", "subscribed", "ready", "replaying"}[o]
}
