package server

import (
	"github.com/zucenko/stakeroom/model"
)

type ClaimState int

const (
	UNCLAIMED ClaimState = iota
	CLAIMED
)

type ledgerEntry struct {
	Id     string
	Type   string
	X, Y   float64
	Points int
	State  ClaimState
}

// Ledger keeps the room's claimable items. A CLAIMED entry never goes back
// to UNCLAIMED, so a claim succeeds at most once per id.
type Ledger struct {
	entries map[ItemKind][]*ledgerEntry
	index   map[ItemKind]map[string]*ledgerEntry
	traps   []model.Trap
}

func NewLedger() *Ledger {
	l := &Ledger{}
	l.reset()
	return l
}

func (l *Ledger) reset() {
	l.entries = map[ItemKind][]*ledgerEntry{}
	l.index = map[ItemKind]map[string]*ledgerEntry{
		ITEM_COLLECTIBLE: {},
		ITEM_POWER_UP:    {},
	}
	l.traps = nil
}

func (l *Ledger) Empty() bool {
	return len(l.entries[ITEM_COLLECTIBLE]) == 0 && len(l.entries[ITEM_POWER_UP]) == 0 && len(l.traps) == 0
}

// Seed loads the items found in a parsed level.
func (l *Ledger) Seed(lv Level) {
	l.Replace(lv.Collectibles, lv.PowerUps, lv.Traps)
}

// Replace drops all items and loads the given ones. Repeated ids keep the first.
func (l *Ledger) Replace(cols []model.Collectible, pus []model.PowerUp, traps []model.Trap) {
	l.reset()
	for _, c := range cols {
		st := UNCLAIMED
		if c.Collected {
			st = CLAIMED
		}
		l.add(ITEM_COLLECTIBLE, &ledgerEntry{Id: c.Id, Type: c.Type, X: c.X, Y: c.Y, Points: c.Points, State: st})
	}
	for _, p := range pus {
		st := UNCLAIMED
		if !p.IsActive() {
			st = CLAIMED
		}
		l.add(ITEM_POWER_UP, &ledgerEntry{Id: p.Id, Type: p.Type, X: p.X, Y: p.Y, State: st})
	}
	l.traps = append(l.traps, traps...)
}

func (l *Ledger) add(kind ItemKind, e *ledgerEntry) {
	if _, dup := l.index[kind][e.Id]; dup {
		return
	}
	l.index[kind][e.Id] = e
	l.entries[kind] = append(l.entries[kind], e)
}

// Claim marks the item claimed. ErrStaleReference when the id is unknown,
// ErrDuplicateSubmission when someone already claimed it.
func (l *Ledger) Claim(kind ItemKind, id string) (*ledgerEntry, error) {
	e, ok := l.index[kind][id]
	if !ok {
		return nil, ErrStaleReference
	}
	if e.State == CLAIMED {
		return nil, ErrDuplicateSubmission
	}
	e.State = CLAIMED
	return e, nil
}

func (l *Ledger) Collectibles() []model.Collectible {
	out := make([]model.Collectible, 0, len(l.entries[ITEM_COLLECTIBLE]))
	for _, e := range l.entries[ITEM_COLLECTIBLE] {
		out = append(out, model.Collectible{
			Id: e.Id, Type: e.Type, X: e.X, Y: e.Y, Points: e.Points,
			Collected: e.State == CLAIMED,
		})
	}
	return out
}

func (l *Ledger) PowerUps() []model.PowerUp {
	out := make([]model.PowerUp, 0, len(l.entries[ITEM_POWER_UP]))
	for _, e := range l.entries[ITEM_POWER_UP] {
		out = append(out, model.PowerUp{
			Id: e.Id, Type: e.Type, X: e.X, Y: e.Y,
			Active: model.Bool(e.State == UNCLAIMED),
		})
	}
	return out
}

func (l *Ledger) Traps() []model.Trap {
	out := make([]model.Trap, len(l.traps))
	copy(out, l.traps)
	return out
}

// ClaimCollectible scores a first claim for the player and the room.
func (r *Room) ClaimCollectible(connId, id string) error {
	p, ok := r.Players[connId]
	if !ok {
		return ErrStaleReference
	}
	if _, err := r.Ledger.Claim(ITEM_COLLECTIBLE, id); err != nil {
		return err
	}
	p.Score += COLLECTIBLE_DELTA
	r.Score += COLLECTIBLE_DELTA
	r.broadcast(model.EV_COLLECTIBLE_COLLECTED, model.CollectibleCollected{
		PlayerId:      connId,
		CollectibleId: id,
		Score:         r.Score,
	})
	return nil
}

// ClaimPowerUp appends the power-up type to the player's list; no score.
func (r *Room) ClaimPowerUp(connId, id string) error {
	p, ok := r.Players[connId]
	if !ok {
		return ErrStaleReference
	}
	e, err := r.Ledger.Claim(ITEM_POWER_UP, id)
	if err != nil {
		return err
	}
	p.PowerUps = append(p.PowerUps, e.Type)
	r.broadcast(model.EV_POWER_UP_COLLECTED, model.PowerUpCollected{PlayerId: connId, PowerUpId: id})
	return nil
}

// SyncLevel accepts the first pushed level state and ignores the rest.
func (r *Room) SyncLevel(connId string, s model.SyncLevel) error {
	if _, ok := r.members[connId]; !ok {
		return ErrStaleReference
	}
	if !r.levelSync.Claim(s.LevelNumber) {
		return ErrDuplicateSubmission
	}
	if s.LevelNumber > 0 {
		r.LevelNumber = s.LevelNumber
	}
	r.Score = s.Score
	r.Ledger.Replace(s.Collectibles, s.PowerUps, s.Traps)
	r.logger().WithField("conn", connId).Infof("level %d synced", r.LevelNumber)
	return nil
}
