package document

import "sync"

// Registry holds the default store connection pair shared by document kinds
// that declare no kind-level connections. Kinds defined through the
// registry resolve the default lazily, at instantiation time, so Connect
// may be called after Define.
type Registry struct {
	mu    sync.RWMutex
	conns *Connections
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Connect installs the default connection pair.
func (r *Registry) Connect(conns Connections) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns = &conns
}

// Connections returns the default connection pair, if one is installed and
// complete.
func (r *Registry) Connections() (Connections, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.conns == nil || !r.conns.complete() {
		return Connections{}, false
	}
	return *r.conns, true
}

// Define builds a kind schema bound to this registry's default
// connections. See [Define].
func (r *Registry) Define(def Definition) (*Schema, error) {
	return define(def, r, false)
}

// DefinePointer builds a pointer kind schema bound to this registry's
// default connections. See [DefinePointer].
func (r *Registry) DefinePointer(def Definition) (*Schema, error) {
	return define(def, r, true)
}
