package hub

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"storefront-livechat-server/domain"
)

// RouteVisitorMessage fans a visitor message out to every attached admin
// and requests async persistence. There is no per-admin assignment; any
// attached admin sees every visitor message. Delivery succeeds from the
// router's perspective once the fan-out happens, regardless of storage.
func (h *Hub) RouteVisitorMessage(conn domain.Connection, sessionID, userID, userName, body string) {
	msg := domain.Message{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		SenderRole: domain.RoleVisitor,
		SenderID:   userID,
		SenderName: userName,
		Body:       body,
		CreatedAt:  h.now(),
	}

	// A message counts as activity, same as a heartbeat.
	h.touch(userID)

	h.pushToAdmins(domain.MessagePush{Type: domain.EventUserMessage, Message: msg})
	h.persist(msg)

	sendTo(conn, domain.Ack{Type: domain.EventMessageSent, Success: true, MessageID: msg.ID})
}

// RouteAdminMessage resolves the destination visitor connection and
// forwards the message. An unroutable message fails immediately with a
// nack; nothing is queued for later delivery.
func (h *Hub) RouteAdminMessage(conn domain.Connection, sessionID, adminID, adminName, body, targetUserID string) {
	target, ok := h.resolveTarget(targetUserID, sessionID)
	if !ok {
		slog.Info("admin message unroutable", "sessionId", sessionID, "targetUserId", targetUserID)
		sendTo(conn, domain.Ack{Type: domain.EventMessageSent, Success: false, Error: "recipient offline"})
		return
	}

	msg := domain.Message{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		SenderRole: domain.RoleAdmin,
		SenderID:   adminID,
		SenderName: adminName,
		Body:       body,
		CreatedAt:  h.now(),
	}

	sendTo(target, domain.MessagePush{Type: domain.EventAdminMessage, Message: msg})
	h.persist(msg)

	sendTo(conn, domain.Ack{Type: domain.EventMessageSent, Success: true, MessageID: msg.ID})
}

// resolveTarget owns the destination lookup precedence: an explicit
// target userID wins; otherwise the first presence record with a live
// connection and a matching sessionID. The session fallback exists
// because a visitor may reconnect under the same sessionID while the
// admin UI still addresses an older identifier.
func (h *Hub) resolveTarget(targetUserID, sessionID string) (domain.Connection, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if targetUserID != "" {
		if rec, ok := h.presence[targetUserID]; ok && rec.connectionID != "" {
			if conn, ok := h.conns[rec.connectionID]; ok {
				return conn, true
			}
		}
	}
	if sessionID != "" {
		for _, rec := range h.presence {
			if rec.sessionID != sessionID || rec.connectionID == "" {
				continue
			}
			if conn, ok := h.conns[rec.connectionID]; ok {
				return conn, true
			}
		}
	}
	return nil, false
}

// persist hands a message to the store without blocking the routing
// path. Failures are logged and otherwise ignored.
func (h *Hub) persist(msg domain.Message) {
	if h.store == nil {
		return
	}
	go func() {
		if err := h.store.SaveMessage(context.Background(), msg); err != nil {
			slog.Warn("message persist failed", "messageId", msg.ID, "sessionId", msg.SessionID, "error", err)
		}
	}()
}
