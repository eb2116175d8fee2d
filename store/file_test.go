package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-livechat-server/domain"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	require.NoError(t, err)
	return st, dir
}

func TestFileStore_CreateSession(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	sess := domain.Session{
		SessionID: "s1",
		UserID:    "u1",
		UserName:  "Ann",
		UserEmail: "ann@example.com",
		CreatedAt: time.Unix(1_700_000_000, 0).UTC(),
	}
	require.NoError(t, st.CreateSession(ctx, sess))

	sessions, err := st.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, sess, sessions[0])

	// Re-creating the same session replaces, never duplicates.
	sess.UserName = "Ann B"
	require.NoError(t, st.CreateSession(ctx, sess))
	sessions, err = st.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Ann B", sessions[0].UserName)
}

func TestFileStore_SaveMessageAppends(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	for i, body := range []string{"hello", "anyone there?"} {
		msg := domain.Message{
			ID:         string(rune('a' + i)),
			SessionID:  "s1",
			SenderRole: domain.RoleVisitor,
			SenderID:   "u1",
			SenderName: "Ann",
			Body:       body,
			CreatedAt:  time.Unix(1_700_000_000, int64(i)).UTC(),
		}
		require.NoError(t, st.SaveMessage(ctx, msg))
	}

	messages, err := st.Messages("s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Body)
	assert.Equal(t, "anyone there?", messages[1].Body)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	st, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateSession(ctx, domain.Session{SessionID: "s1", UserID: "u1"}))
	require.NoError(t, st.SaveMessage(ctx, domain.Message{ID: "m1", SessionID: "s1", Body: "hi"}))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)

	sessions, err := reopened.Sessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	messages, err := reopened.Messages("s1")
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	st, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateSession(ctx, domain.Session{SessionID: "s1", UserID: "u1"}))
	require.NoError(t, st.SaveMessage(ctx, domain.Message{ID: "m1", SessionID: "s1", Body: "hi"}))

	var leftovers []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if filepath.Ext(path) == ".tmp" {
			leftovers = append(leftovers, path)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, leftovers, "writes rename the temp file into place")
}

func TestFileStore_RejectsUnsafeSessionIDs(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "..", "../escape", "a/b"} {
		assert.Error(t, st.CreateSession(ctx, domain.Session{SessionID: id, UserID: "u1"}), "id %q", id)
		assert.Error(t, st.SaveMessage(ctx, domain.Message{ID: "m1", SessionID: id}), "id %q", id)
	}
}

func TestFileStore_CanceledContext(t *testing.T) {
	st, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, st.CreateSession(ctx, domain.Session{SessionID: "s1", UserID: "u1"}))
	assert.Error(t, st.SaveMessage(ctx, domain.Message{ID: "m1", SessionID: "s1"}))
}
