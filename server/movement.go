package server

import (
	"github.com/zucenko/stakeroom/model"
)

// Move overwrites the player's kinematics and relays them to the other
// member. Last write wins; an unknown player is a no-op.
func (r *Room) Move(connId string, m model.Movement) error {
	p, ok := r.Players[connId]
	if !ok {
		return ErrStaleReference
	}
	p.X, p.Y = m.X, m.Y
	p.Vx, p.Vy = m.Vx, m.Vy
	p.Anim = m.Anim
	p.Alive = m.Alive == nil || *m.Alive
	r.broadcastExcept(connId, model.EV_PLAYER_MOVED, clonePlayer(p))
	return nil
}

func (r *Room) HitTrap(connId, trapId string) error {
	p, ok := r.Players[connId]
	if !ok {
		return ErrStaleReference
	}
	p.Alive = false
	r.broadcast(model.EV_PLAYER_DIED, model.PlayerDied{PlayerId: connId, TrapId: trapId})
	return nil
}
