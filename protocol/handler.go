package protocol

import (
	"encoding/json"
	"log/slog"

	"storefront-livechat-server/domain"
)

// Handler decodes inbound JSON events and dispatches them to the hub.
// A malformed event is dropped with a log; nothing here mutates state
// or crashes on bad input.
type Handler struct {
	hub domain.Hub
}

func NewHandler(hub domain.Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var ev domain.Envelope
	if err := json.Unmarshal(data, &ev); err != nil {
		slog.Warn("invalid event", "connectionId", conn.ID(), "error", err)
		return
	}

	switch ev.Type {
	case domain.EventJoinSession:
		if ev.SessionID == "" || ev.UserID == "" {
			h.drop(conn, ev.Type, "missing sessionId or userId")
			return
		}
		h.hub.Join(conn, ev.SessionID, ev.UserID, ev.UserName, ev.UserEmail)

	case domain.EventAdminJoin:
		if ev.AdminID == "" {
			h.drop(conn, ev.Type, "missing adminId")
			return
		}
		h.hub.AttachAdmin(conn, ev.AdminID, ev.AdminName)

	case domain.EventHeartbeat:
		if ev.UserID == "" {
			h.drop(conn, ev.Type, "missing userId")
			return
		}
		h.hub.Heartbeat(ev.UserID)

	case domain.EventUserMessage:
		if ev.SessionID == "" || ev.UserID == "" || ev.Message == "" {
			h.drop(conn, ev.Type, "missing sessionId, userId or message")
			return
		}
		h.hub.RouteVisitorMessage(conn, ev.SessionID, ev.UserID, ev.UserName, ev.Message)

	case domain.EventAdminMessage:
		if ev.SessionID == "" || ev.AdminID == "" || ev.Message == "" {
			h.drop(conn, ev.Type, "missing sessionId, adminId or message")
			return
		}
		h.hub.RouteAdminMessage(conn, ev.SessionID, ev.AdminID, ev.AdminName, ev.Message, ev.TargetUserID)

	case domain.EventTypingStart, domain.EventTypingStop:
		if ev.SessionID == "" {
			h.drop(conn, ev.Type, "missing sessionId")
			return
		}
		sig := domain.TypingSignal{
			SessionID: ev.SessionID,
			Role:      domain.RoleVisitor,
			IsTyping:  ev.Type == domain.EventTypingStart,
		}
		senderID := ev.UserID
		if ev.AdminID != "" {
			sig.Role = domain.RoleAdmin
			senderID = ev.AdminID
		}
		h.hub.SetTyping(sig, senderID, ev.TargetUserID)

	default:
		slog.Warn("unknown event type", "connectionId", conn.ID(), "type", ev.Type)
	}
}

func (h *Handler) drop(conn domain.Connection, eventType, reason string) {
	slog.Warn("malformed event dropped", "connectionId", conn.ID(), "type", eventType, "reason", reason)
}
