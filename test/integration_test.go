package test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"waylink/config"
	"waylink/discovery"
	"waylink/display"
	"waylink/middleware"
	"waylink/object"
	"waylink/schema"
	"waylink/transport"
	"waylink/wire"
)

// ---- A minimal compositor protocol for the tests ----

var displayIface = schema.Interface{
	Name:    "display",
	Version: 1,
	Requests: []schema.Op{
		{Name: "sync", Signature: "n"},
		{Name: "create_surface", Signature: "n"},
	},
	Events: []schema.Op{
		{Name: "error", Signature: "uus"},
	},
}

var surfaceIface = schema.Interface{
	Name:    "surface",
	Version: 1,
	Requests: []schema.Op{
		{Name: "set_title", Signature: "s"},
	},
}

// compositor is the server-side state shared across assertions.
type compositor struct {
	mu     sync.Mutex
	titles map[uint32]string
	serial uint32
}

func (c *compositor) title(id uint32) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.titles[id]
	return t, ok
}

// bindSession seeds each client's object space with the display object.
func (c *compositor) bindSession(s *display.Session) error {
	return s.Objects.Add(1, displayIface, object.HandlerFunc(func(_ context.Context, msg *wire.Message) error {
		cur := msg.Cursor()
		switch msg.Opcode {
		case 0: // sync: fire the callback's done event
			cbid, ok := cur.NextUint32()
			if !ok {
				return &wire.MissingArgError{Field: "sync callback"}
			}
			c.mu.Lock()
			c.serial++
			serial := c.serial
			c.mu.Unlock()
			done := &wire.Message{Object: cbid, Opcode: 0}
			done.PushUint32(serial)
			return s.Post(done)
		case 1: // create_surface: bind the client-chosen id
			id, ok := cur.NextUint32()
			if !ok {
				return &wire.MissingArgError{Field: "create_surface id"}
			}
			return s.Objects.Add(id, surfaceIface, c.surfaceHandler(id))
		}
		return nil
	}))
}

func (c *compositor) surfaceHandler(id uint32) object.Handler {
	return object.HandlerFunc(func(_ context.Context, msg *wire.Message) error {
		if msg.Opcode == 0 { // set_title
			title, ok := msg.Cursor().NextString()
			if !ok {
				return &wire.MissingArgError{Field: "set_title title"}
			}
			c.mu.Lock()
			c.titles[id] = string(title)
			c.mu.Unlock()
		}
		return nil
	})
}

func startCompositor(t *testing.T, cfg config.Config, reg discovery.Registry) *compositor {
	t.Helper()
	comp := &compositor{titles: make(map[uint32]string)}

	d := display.New(cfg, zerolog.Nop())
	d.Use(middleware.Logging(zerolog.Nop()))
	d.OnSession(comp.bindSession)

	errs := make(chan error, 1)
	go func() { errs <- d.Serve(reg, "") }()
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("display close: %v", err)
		}
		if err := <-errs; err != nil {
			t.Errorf("display serve: %v", err)
		}
	})

	return comp
}

func waitDial(t *testing.T, network, addr string) *transport.Client {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := transport.Dial(network, addr, zerolog.Nop())
		if err == nil {
			return c
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("display never became dialable")
	return nil
}

// TestSurfaceLifecycle drives the full stack over a unix socket:
// client → transport → wire → display → middleware → object dispatch,
// with a RoundTrip barrier proving the requests landed in order.
func TestSurfaceLifecycle(t *testing.T) {
	cfg := config.Default()
	cfg.Addr = filepath.Join(t.TempDir(), "wl-0")
	comp := startCompositor(t, cfg, nil)

	client := waitDial(t, cfg.Network, cfg.Addr)
	defer client.Close()

	// The display object occupies id 1 on both sides by convention;
	// binding it keeps fresh allocations clear of it.
	ignoreEvents := object.HandlerFunc(func(context.Context, *wire.Message) error { return nil })
	if err := client.Bind(1, displayIface, ignoreEvents); err != nil {
		t.Fatal(err)
	}

	surfaceID, err := client.NewObject(surfaceIface, nil)
	if err != nil {
		t.Fatal(err)
	}

	create := &wire.Message{Object: 1, Opcode: 1}
	create.PushUint32(surfaceID)
	if err := client.Send(create); err != nil {
		t.Fatalf("create_surface: %v", err)
	}

	setTitle := &wire.Message{Object: surfaceID, Opcode: 0}
	setTitle.PushString("terminal")
	if err := client.Send(setTitle); err != nil {
		t.Fatalf("set_title: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = client.RoundTrip(ctx, func(cbid uint32) *wire.Message {
		sync := &wire.Message{Object: 1, Opcode: 0}
		sync.PushUint32(cbid)
		return sync
	})
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}

	// The barrier completed, so set_title must already be visible.
	title, ok := comp.title(surfaceID)
	if !ok || title != "terminal" {
		t.Errorf("surface title: got (%q, %v), want \"terminal\"", title, ok)
	}
}

// TestRemoteDisplayViaDiscovery runs the same stack over tcp, with the
// client resolving the display through a discovery registry.
func TestRemoteDisplayViaDiscovery(t *testing.T) {
	cfg := config.Default()
	cfg.Network = "tcp"
	cfg.Addr = "127.0.0.1:0"
	cfg.Discovery.Display = "studio"

	reg := discovery.NewMockRegistry()
	startCompositor(t, cfg, reg)

	// Serve advertises its bound address once the listener is up.
	var eps []discovery.Endpoint
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		eps, _ = reg.Discover("studio")
		if len(eps) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(eps) == 0 {
		t.Fatal("display never advertised an endpoint")
	}
	if eps[0].Version != display.ProtocolVersion {
		t.Errorf("advertised version %d, want %d", eps[0].Version, display.ProtocolVersion)
	}

	client, err := transport.DialDisplay(reg, "studio", zerolog.Nop())
	if err != nil {
		t.Fatalf("DialDisplay: %v", err)
	}
	defer client.Close()

	ignoreEvents := object.HandlerFunc(func(context.Context, *wire.Message) error { return nil })
	if err := client.Bind(1, displayIface, ignoreEvents); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = client.RoundTrip(ctx, func(cbid uint32) *wire.Message {
		sync := &wire.Message{Object: 1, Opcode: 0}
		sync.PushUint32(cbid)
		return sync
	})
	if err != nil {
		t.Fatalf("RoundTrip over tcp: %v", err)
	}
}
