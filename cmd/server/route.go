package main

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/stakeroom/server"
)

const URI_WS = "/play"

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", URI_WS, s.GameServer.HandleHttpCall())
	s.router.HandleFunc("GET", "/rooms", s.handleListRooms)
	s.router.HandleFunc("GET", "/rooms/:code", s.handleRoomInfo)
	s.router.HandleFunc("GET", "/assets/levels/:file", s.handleLevelFile)
	s.router.HandleFunc("GET", "/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(server.HTTP_SUCCESS)
	})
	if s.Config.StaticDir != "" {
		s.router.NotFound = http.FileServer(http.Dir(s.Config.StaticDir))
	}
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, server.HTTP_SUCCESS, s.GameServer.ListRooms(r.Context()))
}

func (s *Server) handleRoomInfo(w http.ResponseWriter, r *http.Request) {
	code := way.Param(r.Context(), "code")
	info := s.GameServer.RoomInfo(r.Context(), code)
	status := server.HTTP_SUCCESS
	if !info.Success {
		status = server.HTTP_NOT_FOUND
	}
	writeJSON(w, status, info)
}

// handleLevelFile serves the raw level text the client renders.
func (s *Server) handleLevelFile(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(way.Param(r.Context(), "file"))
	if filepath.Ext(name) != ".txt" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.Config.LevelsDir, name))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("writeJSON")
	}
}
