package model

// server -> client events
const (
	EV_ACK                   = "ack"
	EV_START_GAME            = "startGame"
	EV_PLAYER_MOVED          = "playerMoved"
	EV_PLAYER_LIST           = "playerList"
	EV_COLLECTIBLE_COLLECTED = "collectibleCollected"
	EV_POWER_UP_COLLECTED    = "powerUpCollected"
	EV_PLAYER_DIED           = "playerDied"
	EV_PLAYER_DISCONNECTED   = "playerDisconnected"
	EV_GAME_RESULT           = "gameResult"
	EV_YOU_WON               = "youWon"
	EV_CURRENT_STATE         = "currentState"
)

type StartGame struct {
	LevelNumber    int                    `json:"levelNumber"`
	Score          int                    `json:"score"`
	Players        map[string]PlayerState `json:"players"`
	PowerUps       []PowerUp              `json:"powerUps"`
	Collectibles   []Collectible          `json:"collectibles"`
	Traps          []Trap                 `json:"traps"`
	LevelText      string                 `json:"levelText"`
	Player1Address string                 `json:"player1Address,omitempty"`
}

type CurrentState struct {
	Players      map[string]PlayerState `json:"players"`
	PowerUps     []PowerUp              `json:"powerUps"`
	Collectibles []Collectible          `json:"collectibles"`
	Traps        []Trap                 `json:"traps"`
	LevelNumber  int                    `json:"levelNumber"`
	Score        int                    `json:"score"`
}

type PlayerListEntry struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Ready bool   `json:"ready"`
}

type CollectibleCollected struct {
	PlayerId      string `json:"playerId"`
	CollectibleId string `json:"collectibleId"`
	Score         int    `json:"score"`
}

type PowerUpCollected struct {
	PlayerId  string `json:"playerId"`
	PowerUpId string `json:"powerUpId"`
}

type PlayerDied struct {
	PlayerId string `json:"playerId"`
	TrapId   string `json:"trapId"`
}

// GameResult.Winner is nil on a tie.
type GameResult struct {
	Players []FinishRecord `json:"players"`
	Winner  *FinishRecord  `json:"winner"`
	Tie     bool           `json:"tie"`
}

type YouWon struct {
	Name               string `json:"name"`
	Score              int    `json:"score"`
	OpponentDiedInFire bool   `json:"opponentDiedInFire"`
}

// JoinReply answers joinRoom. Error is set when Success is false.
type JoinReply struct {
	Success        bool   `json:"success"`
	Player1Address string `json:"player1Address,omitempty"`
	Error          string `json:"error,omitempty"`
}

type RoomInfo struct {
	Success        bool   `json:"success"`
	Code           string `json:"code,omitempty"`
	Players        int    `json:"players"`
	Started        bool   `json:"started"`
	Player1Address string `json:"player1Address,omitempty"`
	Error          string `json:"error,omitempty"`
}
