package link

import (
	"fmt"
	"sync"

	"github.com/acornnet/econetd/internal/econet"
	"github.com/acornnet/econetd/internal/hw"
)

// MaxHandles is the number of concurrently open listen handles. Handle ids
// must fit the low bits of a port slot.
const MaxHandles = int(hw.SlotHandleMask)

// PortRegistry maps ports to the handle listening on them. At most one
// handle listens on a port.
type PortRegistry struct {
	mu    sync.Mutex
	ports [256]*ListenHandle
	ids   [MaxHandles + 1]bool
}

// NewPortRegistry creates an empty registry.
func NewPortRegistry() *PortRegistry {
	return &PortRegistry{}
}

// Register binds h to port and assigns it a handle id.
func (r *PortRegistry) Register(port econet.Port, h *ListenHandle) error {
	if port == econet.PortImmediate {
		return fmt.Errorf("%w: %#02x is reserved", ErrInvalidPort, uint8(port))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ports[port] != nil {
		return fmt.Errorf("%w: %#02x", ErrPortInUse, uint8(port))
	}
	id := 0
	for i := 1; i <= MaxHandles; i++ {
		if !r.ids[i] {
			id = i
			break
		}
	}
	if id == 0 {
		return fmt.Errorf("%w: all %d handles open", ErrInvalidArgument, MaxHandles)
	}
	r.ids[id] = true
	h.id = uint8(id)
	h.port = port
	r.ports[port] = h
	return nil
}

// Unregister releases port. It reports whether a handle was bound.
func (r *PortRegistry) Unregister(port econet.Port) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.ports[port]
	if h == nil {
		return false
	}
	r.ids[h.id] = false
	r.ports[port] = nil
	return true
}

// Route returns the handle listening on port.
func (r *PortRegistry) Route(port econet.Port) (*ListenHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.ports[port]
	return h, h != nil
}

// Ports returns the bound ports in ascending order.
func (r *PortRegistry) Ports() []econet.Port {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ports []econet.Port
	for p, h := range r.ports {
		if h != nil {
			ports = append(ports, econet.Port(p))
		}
	}
	return ports
}
