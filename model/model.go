package model

// PlayerState is the latest self-reported state of one room member.
type PlayerState struct {
	Id       string   `json:"id"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Vx       float64  `json:"vx"`
	Vy       float64  `json:"vy"`
	Anim     string   `json:"anim"`
	Color    string   `json:"color"`
	Name     string   `json:"name"`
	Address  string   `json:"address,omitempty"`
	Score    int      `json:"score"`
	PowerUps []string `json:"powerUps"`
	Alive    bool     `json:"alive"`
	Ready    bool     `json:"ready"`
}

// Collectible is a scoring pickup. Id is position derived ("px,py").
type Collectible struct {
	Id        string  `json:"id"`
	Type      string  `json:"type,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Points    int     `json:"points,omitempty"`
	Collected bool    `json:"collected"`
}

// PowerUp is claimable once. A missing Active flag means active.
type PowerUp struct {
	Id     string  `json:"id"`
	Type   string  `json:"type"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type Trap struct {
	Id     string  `json:"id"`
	Type   string  `json:"type,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// IsActive reports whether the power-up can still be claimed.
func (p PowerUp) IsActive() bool {
	return p.Active == nil || *p.Active
}

func (t Trap) IsActive() bool {
	return t.Active == nil || *t.Active
}

// FinishRecord is one player's completion report. FinishOrder, ScoreRank and
// Total are filled in when the match resolves.
type FinishRecord struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Time        int64  `json:"time"`
	FinishOrder int    `json:"finishOrder,omitempty"`
	ScoreRank   int    `json:"scoreRank,omitempty"`
	Total       int    `json:"total,omitempty"`
}

func Bool(b bool) *bool {
	return &b
}
