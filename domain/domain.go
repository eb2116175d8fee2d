package domain

import (
	"context"
	"time"
)

// PresenceState classifies a logical user as online, idle, or offline.
// Online is re-entered only via an explicit join or a fresh heartbeat.
type PresenceState int

const (
	StateOnline PresenceState = iota
	StateIdle
	StateOffline
)

func (s PresenceState) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateIdle:
		return "idle"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Role distinguishes the two sides of a chat session.
type Role string

const (
	RoleVisitor Role = "visitor"
	RoleAdmin   Role = "admin"
)

// IdentityKind is decided once at join time, never re-inferred from
// string shape later.
type IdentityKind int

const (
	IdentityGuest IdentityKind = iota
	IdentityAuthenticated
)

// Identity carries display-only attributes; routing never keys on it.
type Identity struct {
	Kind    IdentityKind
	Name    string
	Contact string
}

// Message is an in-flight chat message. The hub only routes it; storage
// is delegated to a Store.
type Message struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	SenderRole Role      `json:"senderRole"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TypingSignal is ephemeral; each signal supersedes the previous one for
// the same (session, role) pair and nothing is retained.
type TypingSignal struct {
	SessionID string `json:"sessionId"`
	Role      Role   `json:"byRole"`
	IsTyping  bool   `json:"isTyping"`
}

// Session identifies one logical chat conversation, spanning reconnects.
type Session struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserEmail string    `json:"userEmail,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Connection is one live transport socket.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Hub is the surface the protocol layer drives. All presence and routing
// decisions complete without waiting on storage.
type Hub interface {
	Join(conn Connection, sessionID, userID, userName, userEmail string)
	AttachAdmin(conn Connection, adminID, adminName string)
	Heartbeat(userID string)
	RouteVisitorMessage(conn Connection, sessionID, userID, userName, body string)
	RouteAdminMessage(conn Connection, sessionID, adminID, adminName, body, targetUserID string)
	SetTyping(sig TypingSignal, senderID, targetUserID string)
	Disconnect(conn Connection)
}

// MessageHandler consumes raw frames from a connection.
type MessageHandler interface {
	Handle(conn Connection, data []byte)
}

// Store persists sessions and transcripts. Implementations are
// best-effort collaborators; a Store error never affects routing.
type Store interface {
	CreateSession(ctx context.Context, s Session) error
	SaveMessage(ctx context.Context, m Message) error
}
