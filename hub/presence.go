package hub

import (
	"context"
	"log/slog"

	"storefront-livechat-server/domain"
)

// classifyIdentity decides guest-vs-authenticated once, at join time.
// Routing never looks at the result; it only drives roster labeling.
func classifyIdentity(name, email string) domain.Identity {
	kind := domain.IdentityAuthenticated
	if name == "" || email == "" {
		kind = domain.IdentityGuest
	}
	return domain.Identity{Kind: kind, Name: name, Contact: email}
}

// Join registers a visitor connection and marks the user online. A join
// for a userID that is already bound to another still-open connection
// supersedes the old binding; the transport owns closing the old socket.
func (h *Hub) Join(conn domain.Connection, sessionID, userID, userName, userEmail string) {
	now := h.now()
	connID := conn.ID()

	h.mu.Lock()
	if old, ok := h.presence[userID]; ok && old.connectionID != "" && old.connectionID != connID {
		delete(h.conns, old.connectionID)
		delete(h.owners, old.connectionID)
		slog.Debug("connection superseded", "userId", userID, "oldConnectionId", old.connectionID)
	}

	rec := &record{
		userID:        userID,
		sessionID:     sessionID,
		identity:      classifyIdentity(userName, userEmail),
		state:         domain.StateOnline,
		connectionID:  connID,
		joinedAt:      now,
		lastHeartbeat: now,
		lastSeen:      now,
	}
	h.presence[userID] = rec
	h.conns[connID] = conn
	h.owners[connID] = userID
	count := len(h.owners)
	push := domain.PresencePush{
		Type:      domain.EventUserJoined,
		UserID:    userID,
		SessionID: sessionID,
		UserName:  rec.identity.Name,
		State:     rec.state.String(),
		Timestamp: now,
	}
	h.mu.Unlock()

	slog.Info("visitor joined", "userId", userID, "sessionId", sessionID, "connectionId", connID, "visitors", count)

	if h.store != nil {
		sess := domain.Session{
			SessionID: sessionID,
			UserID:    userID,
			UserName:  userName,
			UserEmail: userEmail,
			CreatedAt: now,
		}
		go func() {
			if err := h.store.CreateSession(context.Background(), sess); err != nil {
				slog.Warn("session persist failed", "sessionId", sessionID, "error", err)
			}
		}()
	}

	h.pushToAdmins(push)
	h.broadcastRoster()
}

// AttachAdmin adds an admin observer and immediately sends it the
// current roster. Admins have no presence state of their own.
func (h *Hub) AttachAdmin(conn domain.Connection, adminID, adminName string) {
	h.mu.Lock()
	h.admins[conn.ID()] = &observer{adminID: adminID, conn: conn}
	count := len(h.admins)
	h.mu.Unlock()

	slog.Info("admin attached", "adminId", adminID, "connectionId", conn.ID(), "admins", count)
	sendTo(conn, h.Snapshot())
}

// Heartbeat refreshes a user's presence clock. A heartbeat for an
// unknown user, or for one with no live connection, is a stale client
// and is ignored.
func (h *Hub) Heartbeat(userID string) {
	h.touch(userID)
}

func (h *Hub) touch(userID string) {
	now := h.now()

	h.mu.Lock()
	rec, ok := h.presence[userID]
	if !ok || rec.connectionID == "" {
		h.mu.Unlock()
		slog.Debug("heartbeat from unknown user", "userId", userID)
		return
	}
	rec.lastHeartbeat = now
	rec.lastSeen = now
	recovered := rec.state == domain.StateIdle
	if recovered {
		rec.state = domain.StateOnline
	}
	h.mu.Unlock()

	if recovered {
		slog.Debug("user recovered from idle", "userId", userID)
		h.broadcastRoster()
	}
}

// Sweep runs one aging pass: users whose heartbeat expired and whose
// connection is gone go Offline; users whose heartbeat expired but who
// still hold a live connection are demoted to Idle only, never forced
// Offline by the sweep alone. At most one roster broadcast is emitted
// per pass.
func (h *Hub) Sweep() {
	now := h.now()
	var idlePushes []domain.PresencePush
	expired := 0

	h.mu.Lock()
	for _, rec := range h.presence {
		if rec.state == domain.StateOffline {
			continue
		}
		if now.Sub(rec.lastHeartbeat) <= h.cfg.IdleThreshold {
			continue
		}
		if rec.connectionID == "" {
			rec.state = domain.StateOffline
			expired++
			continue
		}
		if rec.state == domain.StateOnline {
			rec.state = domain.StateIdle
			idlePushes = append(idlePushes, domain.PresencePush{
				Type:      domain.EventUserIdle,
				UserID:    rec.userID,
				SessionID: rec.sessionID,
				UserName:  rec.identity.Name,
				State:     rec.state.String(),
				Timestamp: now,
			})
		}
	}
	h.mu.Unlock()

	if expired > 0 {
		slog.Info("presence sweep expired users", "count", expired)
	}
	for _, push := range idlePushes {
		h.pushToAdmins(push)
	}
	if expired > 0 || len(idlePushes) > 0 {
		h.broadcastRoster()
	}
}
