package hub

import (
	"log/slog"

	"storefront-livechat-server/domain"
)

// SetTyping relays a typing signal to the opposite role. The hub is a
// pure relay here: no debouncing, no timers, nothing retained. Visitor
// signals fan out to all admins; admin signals resolve one visitor
// connection using the same precedence as message routing. An
// unresolvable signal is dropped silently.
func (h *Hub) SetTyping(sig domain.TypingSignal, senderID, targetUserID string) {
	eventType := domain.EventTypingStart
	if !sig.IsTyping {
		eventType = domain.EventTypingStop
	}
	push := domain.TypingPush{
		Type:      eventType,
		SessionID: sig.SessionID,
		Role:      sig.Role,
		SenderID:  senderID,
	}

	if sig.Role == domain.RoleVisitor {
		h.pushToAdmins(push)
		return
	}

	target, ok := h.resolveTarget(targetUserID, sig.SessionID)
	if !ok {
		slog.Debug("typing signal unroutable", "sessionId", sig.SessionID)
		return
	}
	sendTo(target, push)
}
