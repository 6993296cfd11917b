package model

// client -> server events
const (
	EV_CREATE_ROOM         = "createRoom"
	EV_JOIN_ROOM           = "joinRoom"
	EV_PLAYER_READY        = "playerReady"
	EV_PLAYER_MOVEMENT     = "playerMovement"
	EV_COLLECT_COLLECTIBLE = "collectCollectible"
	EV_COLLECT_POWER_UP    = "collectPowerUp"
	EV_PLAYER_HIT_TRAP     = "playerHitTrap"
	EV_PLAYER_FINISHED     = "playerFinished"
	EV_PLAYER_LOST         = "playerLost"
	EV_REQUEST_ROOM_STATE  = "requestRoomState"
	EV_GET_ROOM_INFO       = "getRoomInfo"
	EV_SYNC_LEVEL          = "syncLevel"
)

// JoinRoom also arrives as a bare room code string from older clients.
type JoinRoom struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name,omitempty"`
	Address  string `json:"address,omitempty"`
}

type Ready struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Color   string  `json:"color,omitempty"`
	Name    string  `json:"name,omitempty"`
	Address string  `json:"address,omitempty"`
}

// Movement carries Alive as a pointer; absent means alive.
type Movement struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Vx    float64 `json:"vx"`
	Vy    float64 `json:"vy"`
	Anim  string  `json:"anim"`
	Alive *bool   `json:"alive,omitempty"`
}

type Finished struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Time  int64  `json:"time"`
}

type Lost struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type SyncLevel struct {
	LevelNumber  int           `json:"levelNumber"`
	Score        int           `json:"score"`
	PowerUps     []PowerUp     `json:"powerUps"`
	Collectibles []Collectible `json:"collectibles"`
	Traps        []Trap        `json:"traps"`
}
