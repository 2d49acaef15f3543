package discovery

import "sync"

// MockRegistry is an in-memory Registry for tests and single-process
// setups that want the discovery plumbing without etcd.
type MockRegistry struct {
	mu       sync.Mutex
	displays map[string][]Endpoint
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{displays: make(map[string][]Endpoint)}
}

func (m *MockRegistry) Register(display string, ep Endpoint, ttl int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.displays[display] = append(m.displays[display], ep)
	return nil
}

func (m *MockRegistry) Deregister(display string, addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	eps := m.displays[display]
	for i, ep := range eps {
		if ep.Addr == addr {
			m.displays[display] = append(eps[:i], eps[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockRegistry) Discover(display string) ([]Endpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Endpoint(nil), m.displays[display]...), nil
}

func (m *MockRegistry) Watch(display string) <-chan []Endpoint {
	ch := make(chan []Endpoint, 1)
	eps, _ := m.Discover(display)
	ch <- eps
	return ch
}
