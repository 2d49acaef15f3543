// Package discovery lets remote displays advertise their endpoints and
// clients find them by display name. A local display on a unix socket
// needs none of this; it exists for the tcp remote-display mode.
package discovery

// Endpoint describes one reachable address for a named display.
type Endpoint struct {
	// Network is the dial network, normally "tcp".
	Network string
	// Addr is the dialable address, e.g. "192.168.1.20:3800".
	Addr string
	// Version is the highest protocol version the display speaks.
	Version uint32
}

// Registry advertises and resolves display endpoints.
type Registry interface {
	// Register advertises an endpoint under the display name with a TTL
	// in seconds; the entry disappears if the display stops renewing it.
	Register(display string, ep Endpoint, ttl int64) error
	// Deregister removes an endpoint, called during graceful shutdown.
	Deregister(display string, addr string) error
	// Discover returns the currently advertised endpoints for a display.
	Discover(display string) ([]Endpoint, error)
	// Watch emits the updated endpoint list whenever it changes.
	Watch(display string) <-chan []Endpoint
}
