package discovery

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdRegistry implements Registry on etcd v3.
//
// Displays register under /waylink/displays/{name}/{addr} with a
// TTL-backed lease: if the display crashes, the lease expires and the
// entry is removed on its own, so clients never discover a dead endpoint.
type EtcdRegistry struct {
	client *clientv3.Client // thread-safe, shared across goroutines
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

// Register advertises an endpoint with a TTL lease and starts background
// renewal. The lease id stays local so one EtcdRegistry can safely serve
// several displays at once.
func (r *EtcdRegistry) Register(display string, ep Endpoint, ttl int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(ep)
	if err != nil {
		return err
	}

	_, err = r.client.Put(ctx, key(display, ep.Addr), string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	// Drain keepalive responses so the channel never fills up.
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes an endpoint, called before the display closes its
// listener.
func (r *EtcdRegistry) Deregister(display string, addr string) error {
	_, err := r.client.Delete(context.TODO(), key(display, addr))
	return err
}

// Discover returns every endpoint currently advertised for a display.
func (r *EtcdRegistry) Discover(display string) ([]Endpoint, error) {
	resp, err := r.client.Get(context.TODO(), prefix(display), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	eps := make([]Endpoint, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var ep Endpoint
		if err := json.Unmarshal(kv.Value, &ep); err != nil {
			continue // skip malformed entries
		}
		eps = append(eps, ep)
	}
	return eps, nil
}

// Watch re-fetches the endpoint list on every change under the display's
// prefix. etcd pushes the changes; no polling.
func (r *EtcdRegistry) Watch(display string) <-chan []Endpoint {
	ch := make(chan []Endpoint, 1)

	go func() {
		watchChan := r.client.Watch(context.TODO(), prefix(display), clientv3.WithPrefix())
		for range watchChan {
			// Re-fetching the full list is simpler than folding
			// individual watch events into it.
			eps, _ := r.Discover(display)
			ch <- eps
		}
	}()

	return ch
}

func prefix(display string) string {
	return "/waylink/displays/" + display + "/"
}

func key(display, addr string) string {
	return prefix(display) + addr
}
