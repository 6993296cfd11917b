package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/stakeroom/model"
)

func TestStartFiresOnce(t *testing.T) {
	r, a, b := twoMemberRoom(t, noLevels())

	started, err := r.Ready(a.id, model.Ready{Name: "alice"})
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, RS_OPEN, r.State)
	assert.Equal(t, 0, a.count(model.EV_START_GAME))

	started, err = r.Ready(b.id, model.Ready{Name: "bob"})
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, RS_STARTED, r.State)

	// readying again after the start does not restart the match
	started, err = r.Ready(a.id, model.Ready{Name: "alice"})
	require.NoError(t, err)
	assert.False(t, started)

	assert.Equal(t, 1, a.count(model.EV_START_GAME))
	assert.Equal(t, 1, b.count(model.EV_START_GAME))
}

func TestStartIgnoresReadyOrder(t *testing.T) {
	for _, first := range []string{"conn-a", "conn-b"} {
		t.Run(first, func(t *testing.T) {
			r, a, b := twoMemberRoom(t, noLevels())
			second := a.id
			if first == a.id {
				second = b.id
			}
			_, err := r.Ready(first, model.Ready{})
			require.NoError(t, err)
			started, err := r.Ready(second, model.Ready{})
			require.NoError(t, err)
			assert.True(t, started)

			msg, ok := a.last(model.EV_START_GAME)
			require.True(t, ok)
			sg := msg.Data.(model.StartGame)
			assert.Len(t, sg.Players, 2)
			assert.Equal(t, 1, sg.LevelNumber)
		})
	}
}

func TestSingleReadyPlayerDoesNotStart(t *testing.T) {
	r := NewRoom("ABCDE", noLevels(), time.Second)
	a := newFakeConn("conn-a")
	_, err := r.Admit(a, "alice", "")
	require.NoError(t, err)

	started, err := r.Ready(a.id, model.Ready{})
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, 1, a.count(model.EV_PLAYER_LIST))
}

func TestReadyUnknownConn(t *testing.T) {
	r, _, _ := twoMemberRoom(t, noLevels())
	_, err := r.Ready("ghost", model.Ready{})
	assert.ErrorIs(t, err, ErrStaleReference)
	assert.Empty(t, r.Players)
}

func TestReadyNameFallback(t *testing.T) {
	r := NewRoom("ABCDE", noLevels(), time.Second)
	a := newFakeConn("abcdef")
	_, err := r.Admit(a, "", "")
	require.NoError(t, err)

	_, err = r.Ready(a.id, model.Ready{X: 3, Y: 4})
	require.NoError(t, err)
	p := r.Players[a.id]
	assert.Equal(t, "Player-abcd", p.Name)
	assert.Equal(t, 3.0, p.X)
	assert.True(t, p.Alive)
	assert.True(t, p.Ready)
	assert.NotEmpty(t, p.Color)
}

func TestPlayer1AddressFirstWriterWins(t *testing.T) {
	r, a, b := twoMemberRoom(t, noLevels())

	// an empty address claims nothing
	_, err := r.Ready(b.id, model.Ready{})
	require.NoError(t, err)
	_, set := r.Player1Address.Get()
	assert.False(t, set)

	_, err = r.Ready(a.id, model.Ready{Address: "wallet-a"})
	require.NoError(t, err)
	_, err = r.Ready(b.id, model.Ready{Address: "wallet-b"})
	require.NoError(t, err)

	addr, _ := r.Player1Address.Get()
	assert.Equal(t, "wallet-a", addr)

	msg, ok := b.last(model.EV_START_GAME)
	require.True(t, ok)
	assert.Equal(t, "wallet-a", msg.Data.(model.StartGame).Player1Address)
}

func TestStartWithUnavailableLevel(t *testing.T) {
	r, a, _ := startedRoom(t, noLevels())

	msg, ok := a.last(model.EV_START_GAME)
	require.True(t, ok)
	sg := msg.Data.(model.StartGame)
	assert.Empty(t, sg.LevelText)
	assert.Empty(t, sg.Collectibles)
	assert.True(t, r.Ledger.Empty())
}

func TestStartWithSlowLevel(t *testing.T) {
	slow := LevelFunc(func(ctx context.Context, number int) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	r, a, b := twoMemberRoom(t, slow)
	r.levelTimeout = 10 * time.Millisecond

	_, err := r.Ready(a.id, model.Ready{})
	require.NoError(t, err)
	started, err := r.Ready(b.id, model.Ready{})
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, 1, b.count(model.EV_START_GAME))
}

func TestStartSeedsLedgerFromLevel(t *testing.T) {
	r, a, _ := startedRoom(t, textLevels("p1 TR I0 \n\nFR DO "))

	msg, ok := a.last(model.EV_START_GAME)
	require.True(t, ok)
	sg := msg.Data.(model.StartGame)
	assert.NotEmpty(t, sg.LevelText)
	require.Len(t, sg.Collectibles, 2)
	assert.Equal(t, "24,24", sg.Collectibles[0].Id)
	assert.Equal(t, 1000, sg.Collectibles[0].Points)
	assert.Equal(t, "40,24", sg.Collectibles[1].Id)
	require.Len(t, sg.Traps, 1)
	assert.Equal(t, "8,40", sg.Traps[0].Id)
	assert.False(t, r.Ledger.Empty())
}

func TestSyncedLevelIsNotReseeded(t *testing.T) {
	r, a, b := twoMemberRoom(t, textLevels("TR I0 "))
	require.NoError(t, r.SyncLevel(a.id, model.SyncLevel{
		LevelNumber:  2,
		Score:        40,
		Collectibles: []model.Collectible{{Id: "c1", Type: "I1", Points: 100}},
	}))

	_, err := r.Ready(a.id, model.Ready{})
	require.NoError(t, err)
	_, err = r.Ready(b.id, model.Ready{})
	require.NoError(t, err)

	msg, ok := b.last(model.EV_START_GAME)
	require.True(t, ok)
	sg := msg.Data.(model.StartGame)
	assert.Equal(t, 2, sg.LevelNumber)
	assert.Equal(t, 40, sg.Score)
	require.Len(t, sg.Collectibles, 1)
	assert.Equal(t, "c1", sg.Collectibles[0].Id)
}
