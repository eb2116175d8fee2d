package hub

import (
	"sort"

	"github.com/google/uuid"

	"storefront-livechat-server/domain"
)

// Snapshot assembles the aggregate presence roster. Online lists users
// in state Online or Idle with a live connection; Offline lists users in
// state Offline with their last-known data. The slices are copies, never
// references into live registry state.
func (h *Hub) Snapshot() domain.Roster {
	h.mu.Lock()
	roster := domain.Roster{Type: domain.EventActiveUsers}
	for _, rec := range h.presence {
		entry := rosterEntry(rec)
		switch {
		case rec.state == domain.StateOffline:
			roster.Offline = append(roster.Offline, entry)
		case rec.connectionID != "":
			roster.Online = append(roster.Online, entry)
		}
	}
	h.mu.Unlock()

	sort.Slice(roster.Online, func(i, j int) bool { return roster.Online[i].UserID < roster.Online[j].UserID })
	sort.Slice(roster.Offline, func(i, j int) bool { return roster.Offline[i].UserID < roster.Offline[j].UserID })
	roster.TotalOnline = len(roster.Online)
	roster.TotalOffline = len(roster.Offline)
	return roster
}

// rosterEntry copies one record into its broadcast shape. Guests are
// relabeled with a fresh random tag; this masking is cosmetic and never
// touches the routing keys.
func rosterEntry(rec *record) domain.RosterEntry {
	entry := domain.RosterEntry{
		UserID:    rec.userID,
		SessionID: rec.sessionID,
		UserName:  rec.identity.Name,
		Contact:   rec.identity.Contact,
		State:     rec.state.String(),
		Guest:     rec.identity.Kind == domain.IdentityGuest,
		JoinedAt:  rec.joinedAt,
		LastSeen:  rec.lastSeen,
	}
	if entry.Guest {
		entry.UserName = "Guest-" + uuid.New().String()[:4]
		entry.Contact = ""
	}
	return entry
}

// broadcastRoster pushes the current snapshot to all admin observers.
// Visitors never receive roster updates.
func (h *Hub) broadcastRoster() {
	h.pushToAdmins(h.Snapshot())
}
