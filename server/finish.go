package server

import (
	"cmp"

	"github.com/zucenko/stakeroom/model"
	"golang.org/x/exp/slices"
)

// Finish buffers connId's finish record. When the second distinct record
// arrives the match resolves, gameResult goes to the room and the buffer is
// cleared.
func (r *Room) Finish(connId string, f model.Finished) (*model.GameResult, error) {
	if _, ok := r.members[connId]; !ok {
		return nil, ErrStaleReference
	}
	if slices.IndexFunc(r.Finishes, func(fr model.FinishRecord) bool { return fr.Id == connId }) >= 0 {
		return nil, ErrDuplicateSubmission
	}
	rec := model.FinishRecord{Id: connId, Name: f.Name, Score: f.Score, Time: f.Time}
	if rec.Time <= 0 {
		rec.Time = r.now().UnixMilli()
	}
	if p, ok := r.Players[connId]; ok {
		if rec.Name == "" {
			rec.Name = p.Name
		}
		if p.Score != rec.Score {
			r.logger().WithField("conn", connId).Warnf("finish score %d differs from claimed %d", rec.Score, p.Score)
		}
	}
	r.Finishes = append(r.Finishes, rec)
	if len(r.Finishes) != 2 {
		return nil, nil
	}

	res := Resolve(r.Finishes[0], r.Finishes[1])
	r.Finishes = nil
	r.broadcast(model.EV_GAME_RESULT, res)
	if res.Tie {
		r.logger().Info("gameResult tie")
	} else {
		r.logger().Infof("gameResult winner %s", res.Winner.Id)
	}
	return &res, nil
}

// Resolve ranks two finish records. Earlier time gets finishOrder 1, higher
// score gets scoreRank 1 (equal scores both get 1), and the lower
// finishOrder+scoreRank wins. Equal totals are a tie.
func Resolve(a, b model.FinishRecord) model.GameResult {
	recs := []model.FinishRecord{a, b}
	slices.SortStableFunc(recs, func(x, y model.FinishRecord) int {
		return cmp.Compare(x.Time, y.Time)
	})
	recs[0].FinishOrder = 1
	recs[1].FinishOrder = 2

	switch {
	case recs[0].Score == recs[1].Score:
		recs[0].ScoreRank, recs[1].ScoreRank = 1, 1
	case recs[0].Score > recs[1].Score:
		recs[0].ScoreRank, recs[1].ScoreRank = 1, 2
	default:
		recs[0].ScoreRank, recs[1].ScoreRank = 2, 1
	}
	for i := range recs {
		recs[i].Total = recs[i].FinishOrder + recs[i].ScoreRank
	}

	res := model.GameResult{Players: recs}
	switch {
	case recs[0].Total < recs[1].Total:
		w := recs[0]
		res.Winner = &w
	case recs[1].Total < recs[0].Total:
		w := recs[1]
		res.Winner = &w
	default:
		res.Tie = true
	}
	return res
}

// PlayerLost tells the surviving player they won. Only an explicit loss does
// this; a dropped connection goes through Leave.
func (r *Room) PlayerLost(connId string, l model.Lost) error {
	if p, ok := r.Players[connId]; ok {
		p.Alive = false
	}
	for id, p := range r.Players {
		if id == connId {
			continue
		}
		if r.sendTo(id, model.EV_YOU_WON, model.YouWon{Name: p.Name, Score: p.Score, OpponentDiedInFire: true}) {
			r.logger().WithField("conn", connId).Infof("%s lost with %d, %s wins", l.Name, l.Score, p.Name)
			return nil
		}
	}
	return ErrStaleReference
}
