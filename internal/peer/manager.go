package peer

import (
	"context"
	"sync"

	"github.com/protei/hss/internal/logger"
)

// Manager tracks the set of live peer connections, keyed by the
// remote Diameter identity each one presented in CER/CEA. It is the
// thing that actually implements s6a.CLROriginator: a CLR for a given
// MME hostname must go out on whichever connection that MME is
// currently holding open, which may not be the connection the
// triggering Update-Location-Request arrived on.
type Manager struct {
	mu    sync.RWMutex
	peers map[string]*Peer
}

// NewManager builds an empty connection registry.
func NewManager() *Manager {
	return &Manager{peers: make(map[string]*Peer)}
}

// Register associates a peer connection with the remote host it
// identified itself as during capability exchange. Called once CER/CEA
// completes.
func (m *Manager) Register(host string, p *Peer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peers[host] = p
}

// Unregister removes a peer connection, normally on disconnect.
func (m *Manager) Unregister(host string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.peers, host)
}

// OriginateCLR implements s6a.CLROriginator: it finds the connection
// currently registered for destinationHost and originates the CLR on
// it. A destination with no live connection is logged and dropped;
// there is nowhere to send it.
func (m *Manager) OriginateCLR(ctx context.Context, destinationHost, imsi string) {
	m.mu.RLock()
	p, ok := m.peers[destinationHost]
	m.mu.RUnlock()
	if !ok {
		logger.Get().WithComponent("peer").Warn("no live connection for CLR destination", "destination_host", destinationHost, "imsi", imsi)
		return
	}
	p.OriginateCLR(ctx, destinationHost, imsi)
}
