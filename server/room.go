package server

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/stakeroom/model"
)

func NewRoom(code string, levels LevelSource, levelTimeout time.Duration) *Room {
	return &Room{
		Code:         code,
		State:        RS_OPEN,
		Players:      make(map[string]*model.PlayerState),
		LevelNumber:  1,
		Ledger:       NewLedger(),
		members:      make(map[string]*member),
		levels:       levels,
		levelTimeout: levelTimeout,
		now:          time.Now,
		Events:       make(chan RoomEvent, ROOM_EVENT_BUFFER),
		done:         make(chan struct{}),
	}
}

func (r *Room) logger() *log.Entry {
	return log.WithField("room", r.Code)
}

// Loop processes room events one at a time until the room empties or is stopped.
func (r *Room) Loop() {
	r.logger().Info("Room.Loop start")
	for {
		select {
		case <-r.done:
			r.logger().Info("Room.Loop stopped")
			return
		case ev := <-r.Events:
			if empty := r.handle(ev); empty {
				r.logger().Info("Room.Loop room empty")
				r.Stop()
				if r.OnEmpty != nil {
					r.OnEmpty(r.Code)
				}
				return
			}
		}
	}
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

// Done is closed once the room stops accepting events.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// handle applies one event and reports whether the room is now empty.
func (r *Room) handle(ev RoomEvent) bool {
	var err error
	switch e := ev.(type) {
	case joinRequest:
		addr, joinErr := r.Admit(e.Conn, e.Name, e.Address)
		e.Reply <- joinResult{Err: joinErr, Player1Address: addr}
		return false
	case leaveRequest:
		return r.Leave(e.ConnId)
	case infoRequest:
		e.Reply <- r.Info()
		return false
	case stateRequest:
		r.SendState(e.Conn, e.Ack)
		return false
	case readyEvent:
		_, err = r.Ready(e.ConnId, e.Ready)
	case movementEvent:
		err = r.Move(e.ConnId, e.Movement)
	case claimEvent:
		if e.Kind == ITEM_POWER_UP {
			err = r.ClaimPowerUp(e.ConnId, e.ItemId)
		} else {
			err = r.ClaimCollectible(e.ConnId, e.ItemId)
		}
	case trapEvent:
		err = r.HitTrap(e.ConnId, e.TrapId)
	case finishEvent:
		_, err = r.Finish(e.ConnId, e.Finished)
	case lostEvent:
		err = r.PlayerLost(e.ConnId, e.Lost)
	case syncEvent:
		err = r.SyncLevel(e.ConnId, e.Level)
	default:
		r.logger().Warnf("Room.handle unexpected event %T", ev)
	}
	if err != nil {
		r.logger().WithError(err).Debugf("Room.handle %T ignored", ev)
	}
	return false
}

// Submit queues ev for the room loop. It fails once the room has stopped.
func (r *Room) Submit(ev RoomEvent) error {
	select {
	case <-r.done:
		return ErrRoomClosed
	default:
	}
	select {
	case r.Events <- ev:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

// Join asks the room loop to admit conn and waits for the answer.
func (r *Room) Join(ctx context.Context, conn Conn, name, address string) (string, error) {
	reply := make(chan joinResult, 1)
	if err := r.Submit(joinRequest{Conn: conn, Name: name, Address: address, Reply: reply}); err != nil {
		return "", err
	}
	select {
	case res := <-reply:
		return res.Player1Address, res.Err
	case <-r.done:
		return "", ErrRoomClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Room) RequestInfo(ctx context.Context) (model.RoomInfo, error) {
	reply := make(chan model.RoomInfo, 1)
	if err := r.Submit(infoRequest{Reply: reply}); err != nil {
		return model.RoomInfo{}, err
	}
	select {
	case info := <-reply:
		return info, nil
	case <-r.done:
		return model.RoomInfo{}, ErrRoomClosed
	case <-ctx.Done():
		return model.RoomInfo{}, ctx.Err()
	}
}

// Admit adds conn to the room's broadcast group. The PlayerState is created
// later, when the connection reports ready.
func (r *Room) Admit(conn Conn, name, address string) (string, error) {
	id := conn.Id()
	if m, ok := r.members[id]; ok {
		if name != "" {
			m.Name = name
		}
		if address != "" {
			m.Address = address
		}
	} else {
		if len(r.members) >= MAX_PLAYERS {
			return "", ErrRoomFull
		}
		r.members[id] = &member{
			Conn:    conn,
			Name:    name,
			Address: address,
			Color:   fmt.Sprintf("hsl(%d, 80%%, 60%%)", rand.Intn(360)),
		}
	}
	r.logger().WithField("conn", id).Infof("joined, members %d", len(r.members))
	addr, _ := r.Player1Address.Get()
	return addr, nil
}

func (r *Room) Info() model.RoomInfo {
	addr, _ := r.Player1Address.Get()
	return model.RoomInfo{
		Success:        true,
		Code:           r.Code,
		Players:        len(r.members),
		Started:        r.State == RS_STARTED,
		Player1Address: addr,
	}
}

func (r *Room) CurrentState() model.CurrentState {
	return model.CurrentState{
		Players:      r.playersSnapshot(),
		PowerUps:     r.Ledger.PowerUps(),
		Collectibles: r.Ledger.Collectibles(),
		Traps:        r.Ledger.Traps(),
		LevelNumber:  r.LevelNumber,
		Score:        r.Score,
	}
}

// SendState answers requestRoomState with a currentState event, and an ack
// when the request carried one.
func (r *Room) SendState(conn Conn, ack int) {
	st := r.CurrentState()
	r.send(conn, model.ServerMessage{Event: model.EV_CURRENT_STATE, Data: st})
	if ack > 0 {
		r.send(conn, model.ServerMessage{Event: model.EV_ACK, Ack: ack, Data: st})
	}
}

func (r *Room) playersSnapshot() map[string]model.PlayerState {
	out := make(map[string]model.PlayerState, len(r.Players))
	for id, p := range r.Players {
		out[id] = clonePlayer(p)
	}
	return out
}

func (r *Room) playerList() []model.PlayerListEntry {
	out := make([]model.PlayerListEntry, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, model.PlayerListEntry{Id: p.Id, Name: p.Name, Color: p.Color, Ready: p.Ready})
	}
	return out
}

func (r *Room) broadcastPlayerList() {
	r.broadcast(model.EV_PLAYER_LIST, r.playerList())
}

func (r *Room) broadcast(event string, data interface{}) {
	r.broadcastExcept("", event, data)
}

// broadcastExcept sends to every member but skip. Data must not be mutated
// afterwards; the write loops encode it later.
func (r *Room) broadcastExcept(skip string, event string, data interface{}) {
	m := model.ServerMessage{Event: event, Data: data}
	for id, mb := range r.members {
		if id == skip {
			continue
		}
		r.send(mb.Conn, m)
	}
}

func (r *Room) sendTo(id string, event string, data interface{}) bool {
	mb, ok := r.members[id]
	if !ok {
		return false
	}
	r.send(mb.Conn, model.ServerMessage{Event: event, Data: data})
	return true
}

func (r *Room) send(c Conn, m model.ServerMessage) {
	if err := c.Send(m); err != nil {
		r.logger().WithField("conn", c.Id()).WithError(err).Warnf("dropping %s", m.Event)
	}
}

func clonePlayer(p *model.PlayerState) model.PlayerState {
	c := *p
	c.PowerUps = make([]string, len(p.PowerUps))
	copy(c.PowerUps, p.PowerUps)
	return c
}
