package server

import (
	"strings"

	"github.com/zucenko/stakeroom/model"
)

// dispatch routes one inbound event. Room-bound events are queued on the
// room loop; events arriving before a join are dropped.
func (ps *PlayerSession) dispatch(cm model.ClientMessage) {
	switch cm.Event {
	case model.EV_CREATE_ROOM:
		ps.createRoom(cm)
	case model.EV_JOIN_ROOM:
		ps.joinRoom(cm)
	case model.EV_GET_ROOM_INFO:
		ps.roomInfo(cm)
	case model.EV_REQUEST_ROOM_STATE:
		ps.toRoom(cm, stateRequest{Conn: ps, Ack: cm.Ack})
	case model.EV_PLAYER_READY:
		if p, ok := decode[model.Ready](ps, cm); ok {
			if p.Name != "" {
				ps.Name = p.Name
			}
			ps.toRoom(cm, readyEvent{ConnId: ps.id, Ready: p})
		}
	case model.EV_PLAYER_MOVEMENT:
		if m, ok := decode[model.Movement](ps, cm); ok {
			ps.toRoom(cm, movementEvent{ConnId: ps.id, Movement: m})
		}
	case model.EV_COLLECT_COLLECTIBLE:
		if id, ok := decode[string](ps, cm); ok {
			ps.toRoom(cm, claimEvent{ConnId: ps.id, Kind: ITEM_COLLECTIBLE, ItemId: id})
		}
	case model.EV_COLLECT_POWER_UP:
		if id, ok := decode[string](ps, cm); ok {
			ps.toRoom(cm, claimEvent{ConnId: ps.id, Kind: ITEM_POWER_UP, ItemId: id})
		}
	case model.EV_PLAYER_HIT_TRAP:
		if id, ok := decode[string](ps, cm); ok {
			ps.toRoom(cm, trapEvent{ConnId: ps.id, TrapId: id})
		}
	case model.EV_PLAYER_FINISHED:
		if f, ok := decode[model.Finished](ps, cm); ok {
			ps.toRoom(cm, finishEvent{ConnId: ps.id, Finished: f})
		}
	case model.EV_PLAYER_LOST:
		if l, ok := decode[model.Lost](ps, cm); ok {
			ps.toRoom(cm, lostEvent{ConnId: ps.id, Lost: l})
		}
	case model.EV_SYNC_LEVEL:
		if sl, ok := decode[model.SyncLevel](ps, cm); ok {
			ps.toRoom(cm, syncEvent{ConnId: ps.id, Level: sl})
		}
	default:
		ps.logger().Debugf("unknown event %q", cm.Event)
	}
}

func decode[T any](ps *PlayerSession, cm model.ClientMessage) (T, bool) {
	v, err := model.DecodeData[T](cm)
	if err != nil {
		ps.logger().WithError(err).Warnf("bad payload for %s", cm.Event)
		return v, false
	}
	return v, true
}

func (ps *PlayerSession) toRoom(cm model.ClientMessage, ev RoomEvent) {
	if ps.Room == nil {
		ps.logger().Debugf("%s outside a room", cm.Event)
		return
	}
	if err := ps.Room.Submit(ev); err != nil {
		ps.logger().WithError(err).Debugf("%s dropped", cm.Event)
		ps.Room = nil
		ps.State = PS_NEW
	}
}

func (ps *PlayerSession) createRoom(cm model.ClientMessage) {
	ps.leaveRoom()
	code := ps.server.CreateRoom()
	if _, err := ps.enter(code); err != nil {
		ps.reply(cm, "")
		return
	}
	ps.reply(cm, code)
}

func (ps *PlayerSession) joinRoom(cm model.ClientMessage) {
	jr, err := model.DecodeData[model.JoinRoom](cm)
	if err != nil {
		code, err := model.DecodeData[string](cm)
		if err != nil {
			ps.logger().WithError(err).Warn("bad joinRoom payload")
			ps.reply(cm, model.JoinReply{Success: false, Error: ROOM_INVALIDE.Message()})
			return
		}
		jr = model.JoinRoom{RoomCode: code}
	}
	if jr.Name != "" {
		ps.Name = jr.Name
	}
	if jr.Address != "" {
		ps.Address = jr.Address
	}
	jr.RoomCode = strings.ToUpper(strings.TrimSpace(jr.RoomCode))
	if ps.Room != nil && ps.Room.Code != jr.RoomCode {
		ps.leaveRoom()
	}
	addr, err := ps.enter(jr.RoomCode)
	if err != nil {
		ps.reply(cm, model.JoinReply{Success: false, Error: CodeOf(err).Message()})
		return
	}
	ps.reply(cm, model.JoinReply{Success: true, Player1Address: addr})
}

// enter joins the room and returns its staking counterpart address, if any.
func (ps *PlayerSession) enter(code string) (string, error) {
	ctx, cancel := ps.requestContext()
	defer cancel()
	r, addr, err := ps.server.JoinRoom(ctx, code, ps, ps.Name, ps.Address)
	if err != nil {
		ps.logger().WithError(err).Infof("join %s refused", code)
		return "", err
	}
	ps.Room = r
	ps.State = PS_PLAY
	return addr, nil
}

func (ps *PlayerSession) roomInfo(cm model.ClientMessage) {
	code, err := model.DecodeData[string](cm)
	if err != nil || code == "" {
		if ps.Room == nil {
			ps.reply(cm, model.RoomInfo{Success: false, Error: ROOM_NOT_FOUND.Message()})
			return
		}
		code = ps.Room.Code
	}
	ctx, cancel := ps.requestContext()
	defer cancel()
	ps.reply(cm, ps.server.RoomInfo(ctx, code))
}
