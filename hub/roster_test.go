package hub

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-livechat-server/domain"
)

func TestSnapshot_SplitsOnlineAndOffline(t *testing.T) {
	h, clk := newTestHub(&mockStore{})

	h.Join(&mockConn{id: "c1"}, "s1", "u1", "Ann", "ann@example.com")
	gone := &mockConn{id: "c2"}
	h.Join(gone, "s2", "u2", "Bob", "bob@example.com")
	h.Disconnect(gone)
	clk.Advance(2 * time.Minute)
	h.Sweep()

	// u1 went idle, u2 went offline.
	snapshot := h.Snapshot()
	require.Len(t, snapshot.Online, 1)
	require.Len(t, snapshot.Offline, 1)
	assert.Equal(t, "u1", snapshot.Online[0].UserID)
	assert.Equal(t, "u2", snapshot.Offline[0].UserID)
	assert.Equal(t, 1, snapshot.TotalOnline)
	assert.Equal(t, 1, snapshot.TotalOffline)
	assert.Equal(t, domain.EventActiveUsers, snapshot.Type)
}

func TestSnapshot_MasksGuestIdentity(t *testing.T) {
	h, _ := newTestHub(&mockStore{})

	h.Join(&mockConn{id: "c1"}, "s1", "u1", "Visitor 4821", "")
	h.Join(&mockConn{id: "c2"}, "s2", "u2", "Ann", "ann@example.com")

	snapshot := h.Snapshot()
	require.Len(t, snapshot.Online, 2)

	byID := map[string]domain.RosterEntry{}
	for _, entry := range snapshot.Online {
		byID[entry.UserID] = entry
	}

	guest := byID["u1"]
	assert.True(t, guest.Guest)
	assert.True(t, strings.HasPrefix(guest.UserName, "Guest-"), "guest label is regenerated, got %q", guest.UserName)
	assert.Empty(t, guest.Contact)
	assert.Equal(t, "u1", guest.UserID, "masking never touches routing keys")

	authed := byID["u2"]
	assert.False(t, authed.Guest)
	assert.Equal(t, "Ann", authed.UserName)
	assert.Equal(t, "ann@example.com", authed.Contact)
}

func TestAttachAdmin_ReceivesImmediateSnapshot(t *testing.T) {
	h, _ := newTestHub(&mockStore{})
	h.Join(&mockConn{id: "c1"}, "s1", "u1", "Ann", "ann@example.com")

	adminConn := &mockConn{id: "a1"}
	h.AttachAdmin(adminConn, "admin1", "Mia")

	rosters := adminConn.eventsOfType(t, domain.EventActiveUsers)
	require.Len(t, rosters, 1)
	online, ok := rosters[0]["online"].([]any)
	require.True(t, ok)
	assert.Len(t, online, 1)
}

func TestBroadcastRoster_NeverSentToVisitors(t *testing.T) {
	h, _ := newTestHub(&mockStore{})
	visitorConn := &mockConn{id: "c1"}
	h.Join(visitorConn, "s1", "u1", "Ann", "ann@example.com")
	visitorConn.reset()

	h.Join(&mockConn{id: "c2"}, "s2", "u2", "Bob", "bob@example.com")

	assert.Empty(t, visitorConn.eventsOfType(t, domain.EventActiveUsers))
}
