package server

import (
	"errors"
	"fmt"

	"github.com/zucenko/stakeroom/model"
)

const HTTP_SUCCESS = 200
const HTTP_BAD_REQUEST = 400
const HTTP_NOT_FOUND = 404
const HTTP_CONFLICT = 409
const HTTP_SERVER_ERR = 503

const (
	MAX_PLAYERS       = 2
	COLLECTIBLE_DELTA = 10
	ROOM_CODE_LENGTH  = 5
	ROOM_EVENT_BUFFER = 64
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrRoomClosed          = errors.New("room closed")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrStaleReference      = errors.New("stale reference")
	ErrAssetUnavailable    = errors.New("level asset unavailable")
	ErrSessionClosed       = errors.New("session closed")
	ErrSendQueueFull       = errors.New("send queue full")
)

type ResponseCode int

const (
	ROOM_READY ResponseCode = iota
	ROOM_NOT_FOUND
	ROOM_FULL
	ROOM_INVALIDE
)

// CodeOf classifies a room store error for replies.
func CodeOf(err error) ResponseCode {
	switch {
	case err == nil:
		return ROOM_READY
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrRoomClosed):
		return ROOM_NOT_FOUND
	case errors.Is(err, ErrRoomFull):
		return ROOM_FULL
	default:
		return ROOM_INVALIDE
	}
}

func (h ResponseCode) ToHttp() int {
	switch h {
	case ROOM_READY:
		return HTTP_SUCCESS
	case ROOM_NOT_FOUND:
		return HTTP_NOT_FOUND
	case ROOM_FULL:
		return HTTP_CONFLICT
	case ROOM_INVALIDE:
		return HTTP_BAD_REQUEST
	default:
		panic(h)
	}
}

// Message is what clients show the user.
func (h ResponseCode) Message() string {
	switch h {
	case ROOM_READY:
		return ""
	case ROOM_NOT_FOUND:
		return "Room not found"
	case ROOM_FULL:
		return "Room is full"
	default:
		return "Invalid request"
	}
}

func (rs RoomState) Name() string {
	switch rs {
	case RS_OPEN:
		return "OPEN"
	case RS_STARTED:
		return "STARTED"
	default:
		return fmt.Sprintf("n/a:%d", rs)
	}
}

func (ps PlayerSessionState) Name() string {
	switch ps {
	case PS_NEW:
		return "NEW"
	case PS_PLAY:
		return "PLAY"
	case PS_OVER:
		return "OVER"
	case PS_ERR:
		return "ERR"
	default:
		return "N/A"
	}
}

// RoomEvent is anything a Room.Loop accepts on its Events channel.
type RoomEvent interface{}

type joinRequest struct {
	Conn    Conn
	Name    string
	Address string
	Reply   chan<- joinResult
}

type joinResult struct {
	Err            error
	Player1Address string
}

type leaveRequest struct {
	ConnId string
}

type infoRequest struct {
	Reply chan<- model.RoomInfo
}

type stateRequest struct {
	Conn Conn
	Ack  int
}

type readyEvent struct {
	ConnId string
	Ready  model.Ready
}

type movementEvent struct {
	ConnId   string
	Movement model.Movement
}

type ItemKind int

const (
	ITEM_COLLECTIBLE ItemKind = iota
	ITEM_POWER_UP
)

type claimEvent struct {
	ConnId string
	Kind   ItemKind
	ItemId string
}

type trapEvent struct {
	ConnId string
	TrapId string
}

type finishEvent struct {
	ConnId   string
	Finished model.Finished
}

type lostEvent struct {
	ConnId string
	Lost   model.Lost
}

type syncEvent struct {
	ConnId string
	Level  model.SyncLevel
}
