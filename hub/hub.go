package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"storefront-livechat-server/domain"
)

const (
	DefaultIdleThreshold = 60 * time.Second
	DefaultSweepInterval = 30 * time.Second
)

// Config tunes the presence sweep. Clock is injectable so tests can
// advance virtual time instead of sleeping.
type Config struct {
	IdleThreshold time.Duration
	SweepInterval time.Duration
	Clock         func() time.Time
}

// record is the presence record for one logical user. At most one record
// exists per userID; a rejoin replaces it.
type record struct {
	userID        string
	sessionID     string
	identity      domain.Identity
	state         domain.PresenceState
	connectionID  string
	joinedAt      time.Time
	lastHeartbeat time.Time
	lastSeen      time.Time
}

type observer struct {
	adminID string
	conn    domain.Connection
}

// Hub owns all presence and routing state. The maps are the only shared
// mutable state in the process and every mutation happens under mu, so
// no two concurrent mutations ever observe inconsistent registry state
// for the same user. Reads taken for broadcast are snapshot copies.
type Hub struct {
	cfg   Config
	store domain.Store
	now   func() time.Time

	mu       sync.Mutex
	presence map[string]*record           // userID -> record
	conns    map[string]domain.Connection // connectionID -> live socket
	owners   map[string]string            // connectionID -> userID
	admins   map[string]*observer         // connectionID -> admin observer

	done     chan struct{}
	stopOnce sync.Once
}

func New(store domain.Store, cfg Config) *Hub {
	if cfg.IdleThreshold <= 0 {
		cfg.IdleThreshold = DefaultIdleThreshold
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Hub{
		cfg:      cfg,
		store:    store,
		now:      cfg.Clock,
		presence: make(map[string]*record),
		conns:    make(map[string]domain.Connection),
		owners:   make(map[string]string),
		admins:   make(map[string]*observer),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic presence sweep.
func (h *Hub) Start() {
	go h.sweepLoop()
}

// Stop halts the sweeper. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) sweepLoop() {
	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.Sweep()
		}
	}
}

// Disconnect removes the connection-keyed registry entries. The presence
// record is kept; only its connection link is cleared, so a flapping
// connection does not thrash the offline roster. The sweep formalizes
// the Offline transition once the heartbeat ages out.
func (h *Hub) Disconnect(conn domain.Connection) {
	connID := conn.ID()

	h.mu.Lock()
	if obs, ok := h.admins[connID]; ok {
		delete(h.admins, connID)
		count := len(h.admins)
		h.mu.Unlock()
		slog.Info("admin detached", "adminId", obs.adminID, "connectionId", connID, "admins", count)
		return
	}

	userID, owned := h.owners[connID]
	delete(h.owners, connID)
	delete(h.conns, connID)
	if !owned {
		h.mu.Unlock()
		return
	}

	rec, ok := h.presence[userID]
	if !ok || rec.connectionID != connID {
		// Late close of a superseded connection; the identity already
		// moved to a newer socket.
		h.mu.Unlock()
		slog.Debug("stale connection closed", "connectionId", connID, "userId", userID)
		return
	}
	rec.connectionID = ""
	push := domain.PresencePush{
		Type:      domain.EventUserLeft,
		UserID:    rec.userID,
		SessionID: rec.sessionID,
		UserName:  rec.identity.Name,
		State:     rec.state.String(),
		Timestamp: h.now(),
	}
	h.mu.Unlock()

	slog.Info("visitor disconnected", "userId", userID, "connectionId", connID)
	h.pushToAdmins(push)
	h.broadcastRoster()
}

// Stats reports live visitor connections, attached admins, and the
// number of tracked presence records.
func (h *Hub) Stats() (visitors, admins, tracked int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.owners), len(h.admins), len(h.presence)
}

// adminConns returns a snapshot copy of the attached admin sockets.
func (h *Hub) adminConns() []domain.Connection {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.Connection, 0, len(h.admins))
	for _, obs := range h.admins {
		out = append(out, obs.conn)
	}
	return out
}

// pushToAdmins fans one event out to every attached admin.
func (h *Hub) pushToAdmins(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("marshal error", "error", err)
		return
	}
	for _, conn := range h.adminConns() {
		if err := conn.Send(data); err != nil {
			slog.Warn("admin push dropped", "connectionId", conn.ID(), "error", err)
		}
	}
}

// sendTo marshals and sends one event to a single connection.
func sendTo(conn domain.Connection, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("marshal error", "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		slog.Warn("push dropped", "connectionId", conn.ID(), "error", err)
	}
}
