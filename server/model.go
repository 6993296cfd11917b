package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zucenko/stakeroom/model"
)

// GameServer is the room store. It owns the code -> Room registry; every Room
// runs its own Loop and is the only goroutine touching its state.
type GameServer struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	sessions map[string]*PlayerSession
	closed   bool

	Levels   LevelSource
	Options  Options
	Upgrader *websocket.Upgrader

	newCode func() string
}

type Options struct {
	LevelTimeout   time.Duration
	ReplyTimeout   time.Duration
	SendBuffer     int
	AllowedOrigins []string
}

func DefaultOptions() Options {
	return Options{
		LevelTimeout: 2 * time.Second,
		ReplyTimeout: 2 * time.Second,
		SendBuffer:   64,
	}
}

type RoomState int

const (
	RS_OPEN RoomState = iota
	RS_STARTED
)

// Conn is the per-connection output the room writes to.
type Conn interface {
	Id() string
	Send(m model.ServerMessage) error
}

type member struct {
	Conn    Conn
	Name    string
	Address string
	Color   string
}

type Room struct {
	Code  string
	State RoomState

	Players        map[string]*model.PlayerState
	Player1Address WriteOnce[string]
	LevelNumber    int
	Score          int
	Ledger         *Ledger
	Finishes       []model.FinishRecord

	members   map[string]*member
	levelSync WriteOnce[int]

	levels       LevelSource
	levelTimeout time.Duration
	now          func() time.Time

	Events   chan RoomEvent
	done     chan struct{}
	stopOnce sync.Once
	OnEmpty  func(code string)
}

type PlayerSessionState int

const (
	PS_NEW PlayerSessionState = iota + 1
	PS_PLAY
	PS_OVER
	PS_ERR
)

type PlayerSession struct {
	State   PlayerSessionState
	id      string
	Name    string
	Address string
	Room    *Room
	Conn    *websocket.Conn
	Codec   model.Codec

	server         *GameServer
	MessagesToSend chan model.ServerMessage
	done           chan struct{}
	closeOnce      sync.Once

	DebugInMessages  int
	DebugOutMessages int
	DebugLastMessage time.Time
}

// WriteOnce holds a value that is set by the first writer and never replaced.
type WriteOnce[T any] struct {
	value T
	set   bool
}

// Claim stores v if nothing was stored yet and reports whether it did.
func (w *WriteOnce[T]) Claim(v T) bool {
	if w.set {
		return false
	}
	w.value = v
	w.set = true
	return true
}

func (w WriteOnce[T]) Get() (T, bool) {
	return w.value, w.set
}
