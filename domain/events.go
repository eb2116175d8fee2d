package domain

import "time"

// Client-originated event types.
const (
	EventJoinSession  = "join-session"
	EventAdminJoin    = "admin-join"
	EventHeartbeat    = "heartbeat"
	EventUserMessage  = "user-message"
	EventAdminMessage = "admin-message"
	EventTypingStart  = "typing-start"
	EventTypingStop   = "typing-stop"
)

// Server-originated push types.
const (
	EventUserJoined  = "user-joined"
	EventUserLeft    = "user-left"
	EventUserIdle    = "user-idle"
	EventActiveUsers = "active-users-update"
	EventMessageSent = "message-sent"
)

// Envelope is the flat inbound wire shape. Which fields are required
// depends on Type; the protocol layer validates before dispatch.
type Envelope struct {
	Type         string `json:"type"`
	SessionID    string `json:"sessionId,omitempty"`
	UserID       string `json:"userId,omitempty"`
	UserName     string `json:"userName,omitempty"`
	UserEmail    string `json:"userEmail,omitempty"`
	AdminID      string `json:"adminId,omitempty"`
	AdminName    string `json:"adminName,omitempty"`
	Message      string `json:"message,omitempty"`
	TargetUserID string `json:"targetUserId,omitempty"`
}

// Ack reports the delivery outcome of a message back to its sender.
type Ack struct {
	Type      string `json:"type"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// MessagePush delivers a routed message to its destination.
type MessagePush struct {
	Type string `json:"type"`
	Message
}

// PresencePush announces a single user's presence change.
type PresencePush struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	UserName  string    `json:"userName"`
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// TypingPush relays a typing signal to the opposite role.
type TypingPush struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Role      Role   `json:"role"`
	SenderID  string `json:"senderId"`
}

// RosterEntry is one user's row in the aggregate presence snapshot.
type RosterEntry struct {
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	UserName  string    `json:"userName"`
	Contact   string    `json:"contact,omitempty"`
	State     string    `json:"state"`
	Guest     bool      `json:"guest"`
	JoinedAt  time.Time `json:"joinedAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Roster is the aggregate snapshot pushed to admin observers.
type Roster struct {
	Type         string        `json:"type"`
	Online       []RosterEntry `json:"online"`
	Offline      []RosterEntry `json:"offline"`
	TotalOnline  int           `json:"totalOnline"`
	TotalOffline int           `json:"totalOffline"`
}
