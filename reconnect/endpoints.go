// File: reconnect/endpoints.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package reconnect

// EndpointSet remembers the endpoints a socket has been asked to
// Connect to (spec.md §4.8: "a socket may be connected to more than
// one endpoint; each reconnects independently"), preserving insertion
// order so round-robin dialing among them is deterministic.
type EndpointSet struct {
	order []string
	known map[string]struct{}
}

// Add registers addr if not already present. Returns false if addr was
// already known (Connect called twice with the same address is a no-op
// at this layer; the socket layer may still choose to warn).
func (s *EndpointSet) Add(addr string) bool {
	if s.known == nil {
		s.known = make(map[string]struct{})
	}
	if _, ok := s.known[addr]; ok {
		return false
	}
	s.known[addr] = struct{}{}
	s.order = append(s.order, addr)
	return true
}

// Remove forgets addr (spec.md §4.8 Disconnect) so it is no longer
// retried.
func (s *EndpointSet) Remove(addr string) {
	delete(s.known, addr)
	for i, a := range s.order {
		if a == addr {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// All returns the endpoints in the order they were added.
func (s *EndpointSet) All() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports how many endpoints are remembered.
func (s *EndpointSet) Len() int { return len(s.order) }
