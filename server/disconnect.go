package server

import (
	"github.com/zucenko/stakeroom/model"
)

// Leave removes connId from the room. The remaining member gets the new
// player list and a playerDisconnected notice. Reports whether the room has
// no players and no connections left, in which case it must be deleted.
func (r *Room) Leave(connId string) bool {
	delete(r.members, connId)
	if _, ok := r.Players[connId]; ok {
		delete(r.Players, connId)
		if len(r.members) > 0 {
			r.broadcastPlayerList()
			r.broadcast(model.EV_PLAYER_DISCONNECTED, connId)
		}
	}
	r.logger().WithField("conn", connId).Infof("left, members %d players %d", len(r.members), len(r.Players))
	return len(r.Players) == 0 && len(r.members) == 0
}
