package allocator

import "sync"

// Synchronized wraps an Allocator with a mutex so multiple goroutines can
// share one instance. The core itself assumes exclusive, single-threaded
// access; wrapping the façade in a mutex is optional, for callers who need
// to share one instance across goroutines.
type Synchronized struct {
	mu   sync.Mutex
	next Allocator
}

var _ Allocator = (*Synchronized)(nil)

// NewSynchronized wraps next with a mutex guarding every call.
func NewSynchronized(next Allocator) *Synchronized {
	return &Synchronized{next: next}
}

func (s *Synchronized) Allocate(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.Allocate(n)
}

func (s *Synchronized) Deallocate(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next.Deallocate(p)
}

func (s *Synchronized) Reallocate(p []byte, n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.Reallocate(p, n)
}

func (s *Synchronized) ReallocateInPlace(p *[]byte, n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.ReallocateInPlace(p, n)
}

func (s *Synchronized) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next.SetMode(m)
}

func (s *Synchronized) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.Mode()
}

func (s *Synchronized) MemorySize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.MemorySize()
}

func (s *Synchronized) DumpState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.DumpState()
}

func (s *Synchronized) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next.Destroy()
}
