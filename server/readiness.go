package server

import (
	"context"

	"github.com/zucenko/stakeroom/model"
)

// Ready records connId as a ready player and re-evaluates the start barrier.
// It reports whether this submission started the match.
func (r *Room) Ready(connId string, p model.Ready) (bool, error) {
	mb, ok := r.members[connId]
	if !ok {
		return false, ErrStaleReference
	}
	name := firstNonEmpty(p.Name, mb.Name, "Player-"+shortId(connId))
	color := firstNonEmpty(p.Color, mb.Color)
	address := firstNonEmpty(p.Address, mb.Address)
	mb.Name, mb.Color, mb.Address = name, color, address

	r.Players[connId] = &model.PlayerState{
		Id:       connId,
		X:        p.X,
		Y:        p.Y,
		Anim:     "idle",
		Color:    color,
		Name:     name,
		Address:  address,
		PowerUps: []string{},
		Alive:    true,
		Ready:    true,
	}
	if address != "" && r.Player1Address.Claim(address) {
		r.logger().WithField("conn", connId).Infof("staking counterpart %s", address)
	}
	r.broadcastPlayerList()

	started := r.evaluateStart()
	r.logger().WithField("conn", connId).Infof("%s ready, state %s", name, r.State.Name())
	return started, nil
}

// evaluateStart fires the start broadcast the first time at least two
// players are present and all of them are ready. Once the room is
// RS_STARTED it never fires again.
func (r *Room) evaluateStart() bool {
	if r.State != RS_OPEN {
		return false
	}
	ready := 0
	for _, p := range r.Players {
		if p.Ready {
			ready++
		}
	}
	if ready < 2 || ready != len(r.Players) {
		return false
	}
	r.State = RS_STARTED

	levelText := r.loadLevelText()
	if _, synced := r.levelSync.Get(); !synced && levelText != "" && r.Ledger.Empty() {
		r.Ledger.Seed(ParseLevel(levelText))
	}
	addr, _ := r.Player1Address.Get()
	r.broadcast(model.EV_START_GAME, model.StartGame{
		LevelNumber:    r.LevelNumber,
		Score:          r.Score,
		Players:        r.playersSnapshot(),
		PowerUps:       r.Ledger.PowerUps(),
		Collectibles:   r.Ledger.Collectibles(),
		Traps:          r.Ledger.Traps(),
		LevelText:      levelText,
		Player1Address: addr,
	})
	r.logger().Infof("startGame, level %d", r.LevelNumber)
	return true
}

// loadLevelText returns "" when the asset cannot be read; the room starts anyway.
func (r *Room) loadLevelText() string {
	if r.levels == nil {
		r.logger().Warn("no level source configured")
		return ""
	}
	ctx := context.Background()
	if r.levelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.levelTimeout)
		defer cancel()
	}
	b, err := r.levels.Level(ctx, r.LevelNumber)
	if err != nil {
		r.logger().WithError(err).Warnf("level %d unavailable", r.LevelNumber)
		return ""
	}
	return string(b)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func shortId(id string) string {
	if len(id) > 4 {
		return id[:4]
	}
	return id
}
