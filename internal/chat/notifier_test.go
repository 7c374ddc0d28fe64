package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCountBroadcast(t *testing.T) {
	reg := NewRegistry()
	notifier := NewNotifier(reg)

	a := join(t, reg, "alice")
	b := join(t, reg, "bob")
	c := join(t, reg, "carol")

	notifier.UserCount()

	for _, peer := range []*Conn{a, b, c} {
		env := recvEnvelope(t, peer)
		assert.Equal(t, TypeUserCount, env.Type)
		assert.Equal(t, "3", env.Content)
	}
}

func TestUserListSortedAndDistinct(t *testing.T) {
	reg := NewRegistry()
	notifier := NewNotifier(reg)

	a := join(t, reg, "zoe")
	join(t, reg, "bob")
	join(t, reg, "bob")
	join(t, reg, "amy")

	notifier.UserList()

	env := recvEnvelope(t, a)
	require.Equal(t, TypeUserList, env.Type)
	assert.Equal(t, []string{"amy", "bob", "zoe"}, env.Users)
}

func TestUserListOmitsUnresolvedNickname(t *testing.T) {
	reg := NewRegistry()
	notifier := NewNotifier(reg)

	a := join(t, reg, "alice")
	nameless := newTestConn("")
	require.NoError(t, reg.Add(nameless))

	notifier.UserList()

	env := recvEnvelope(t, a)
	assert.Equal(t, []string{"alice"}, env.Users)
}

func TestSystemMessageCarriesLiveCount(t *testing.T) {
	reg := NewRegistry()
	notifier := NewNotifier(reg)

	a := join(t, reg, "alice")
	join(t, reg, "bob")

	notifier.System("a new user joined")

	env := recvEnvelope(t, a)
	assert.Equal(t, TypeSystem, env.Type)
	assert.Contains(t, env.Content, "a new user joined")
	assert.Contains(t, env.Content, "2", "count is read at build time")
}

func TestBroadcastSkipsFailedRecipient(t *testing.T) {
	reg := NewRegistry()
	notifier := NewNotifier(reg)

	healthy := join(t, reg, "healthy")
	stuck := newTestConn("stuck")
	stuck.Send = make(chan []byte) // unbuffered: every TrySend fails
	require.NoError(t, reg.Add(stuck))

	notifier.UserCount()

	env := recvEnvelope(t, healthy)
	assert.Equal(t, TypeUserCount, env.Type)
	assert.Zero(t, queuedFrames(stuck))
}

func TestClosedConnectionIsSkipped(t *testing.T) {
	reg := NewRegistry()
	notifier := NewNotifier(reg)

	a := join(t, reg, "alice")
	gone := join(t, reg, "gone")
	gone.Close()

	notifier.UserCount()

	env := recvEnvelope(t, a)
	assert.Equal(t, "2", env.Content)
	assert.False(t, gone.IsOpen())
}
