package server

import (
	"context"
	"crypto/rand"
	"math/big"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/stakeroom/model"
	"golang.org/x/exp/slices"
)

func NewGameServer(levels LevelSource, opts Options) *GameServer {
	s := &GameServer{
		rooms:    make(map[string]*Room),
		sessions: make(map[string]*PlayerSession),
		Levels:   levels,
		Options:  opts,
		newCode:  func() string { return generateCode(ROOM_CODE_LENGTH) },
	}
	s.Upgrader = &websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

func (s *GameServer) checkOrigin(r *http.Request) bool {
	if len(s.Options.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.Options.AllowedOrigins, origin)
}

// CreateRoom registers a new empty room under a code no live room uses and
// starts its loop.
func (s *GameServer) CreateRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		code := s.newCode()
		if _, exists := s.rooms[code]; exists {
			continue
		}
		r := NewRoom(code, s.Levels, s.Options.LevelTimeout)
		r.OnEmpty = s.removeRoom
		if s.closed {
			r.Stop()
		}
		s.rooms[code] = r
		go r.Loop()
		log.WithField("room", code).Info("create Room")
		return code
	}
}

func (s *GameServer) Room(code string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// JoinRoom admits conn into the room's group.
func (s *GameServer) JoinRoom(ctx context.Context, code string, conn Conn, name, address string) (*Room, string, error) {
	r, err := s.Room(code)
	if err != nil {
		return nil, "", err
	}
	addr, err := r.Join(ctx, conn, name, address)
	if err != nil {
		return nil, "", err
	}
	return r, addr, nil
}

func (s *GameServer) RoomInfo(ctx context.Context, code string) model.RoomInfo {
	r, err := s.Room(code)
	if err == nil {
		var info model.RoomInfo
		if info, err = r.RequestInfo(ctx); err == nil {
			return info
		}
	}
	rc := CodeOf(err)
	return model.RoomInfo{Success: false, Code: code, Error: rc.Message()}
}

func (s *GameServer) ListRooms(ctx context.Context) []model.RoomInfo {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()

	out := make([]model.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		if info, err := r.RequestInfo(ctx); err == nil {
			out = append(out, info)
		}
	}
	slices.SortFunc(out, func(a, b model.RoomInfo) int { return strings.Compare(a.Code, b.Code) })
	return out
}

func (s *GameServer) NumRooms() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func (s *GameServer) removeRoom(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[code]; ok {
		r.Stop()
		delete(s.rooms, code)
		log.WithField("room", code).Info("delete Room")
	}
}

// Shutdown stops every room and closes every open connection.
func (s *GameServer) Shutdown() {
	s.mu.Lock()
	s.closed = true
	rooms := s.rooms
	sessions := s.sessions
	s.rooms = make(map[string]*Room)
	s.sessions = make(map[string]*PlayerSession)
	s.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
	}
	for _, ps := range sessions {
		ps.Close()
	}
	log.Infof("GameServer shutdown, %d rooms %d sessions", len(rooms), len(sessions))
}

func (s *GameServer) addSession(ps *PlayerSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions[ps.Id()] = ps
	return true
}

func (s *GameServer) removeSession(ps *PlayerSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, ps.Id())
}

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
