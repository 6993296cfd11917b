package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/stakeroom/model"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 25 * time.Second
	maxFrameSize = 1 << 20
)

func (s *GameServer) HandleHttpCall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("HandleHttpCall - Conection received")
		codec, err := model.CodecByName(r.URL.Query().Get("codec"))
		if err != nil {
			http.Error(w, err.Error(), HTTP_BAD_REQUEST)
			return
		}

		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already answered the request
			log.Printf("HandleHttpCall websocket upgrade err %v", err)
			return
		}

		ps := s.NewPlayerSession(con, codec)
		if !s.addSession(ps) {
			log.Warn("HandleHttpCall server shutting down")
			_ = con.Close()
			return
		}
		defer s.removeSession(ps)

		go ps.LoopChannelWrite()
		ps.LoopChannelRead()
		ps.leaveRoom()
		ps.Close()
		log.WithField("conn", ps.Id()).Info("HandleHttpCall connection done")
	}
}

func (s *GameServer) NewPlayerSession(con *websocket.Conn, codec model.Codec) *PlayerSession {
	buf := s.Options.SendBuffer
	if buf <= 0 {
		buf = DefaultOptions().SendBuffer
	}
	return &PlayerSession{
		State:          PS_NEW,
		id:             uuid.NewString(),
		Conn:           con,
		Codec:          codec,
		server:         s,
		MessagesToSend: make(chan model.ServerMessage, buf),
		done:           make(chan struct{}),
	}
}

func (ps *PlayerSession) Id() string {
	return ps.id
}

func (ps *PlayerSession) logger() *log.Entry {
	return log.WithField("conn", ps.id)
}

// Send queues m for the write loop. A full queue drops m so that a slow
// client cannot stall its room.
func (ps *PlayerSession) Send(m model.ServerMessage) error {
	select {
	case <-ps.done:
		return ErrSessionClosed
	default:
	}
	select {
	case ps.MessagesToSend <- m:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (ps *PlayerSession) Close() {
	ps.closeOnce.Do(func() {
		close(ps.done)
		if ps.Conn != nil {
			_ = ps.Conn.Close()
		}
	})
}

func (ps *PlayerSession) LoopChannelRead() {
	ps.logger().Info("LoopChannelRead STARTED")
	ps.Conn.SetReadLimit(maxFrameSize)
	_ = ps.Conn.SetReadDeadline(time.Now().Add(pongWait))
	ps.Conn.SetPongHandler(func(string) error {
		return ps.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := ps.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ps.logger().Warnf("LoopChannelRead err reading message %v", err)
				ps.State = PS_ERR
			} else {
				ps.State = PS_OVER
			}
			break
		}
		// any frame proves the peer is alive
		_ = ps.Conn.SetReadDeadline(time.Now().Add(pongWait))
		cm, err := ps.Codec.Decode(data)
		if err != nil {
			ps.logger().WithError(err).Warn("cant decode")
			continue
		}
		ps.DebugLastMessage = time.Now()
		ps.DebugInMessages++
		ps.dispatch(cm)
	}
	ps.logger().Infof("LoopChannelRead ENDED %s", ps.State.Name())
}

// LoopChannelWrite is the only writer on the websocket.
func (ps *PlayerSession) LoopChannelWrite() {
	ps.logger().Info("LoopChannelWrite STARTED")
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	frameType := websocket.TextMessage
	if ps.Codec.Binary() {
		frameType = websocket.BinaryMessage
	}
loop:
	for {
		select {
		case <-ps.done:
			break loop
		case mes := <-ps.MessagesToSend:
			b, err := ps.Codec.Encode(mes)
			if err != nil {
				ps.logger().WithError(err).Warnf("cant encode %s", mes.Event)
				continue
			}
			_ = ps.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ps.Conn.WriteMessage(frameType, b); err != nil {
				ps.logger().WithError(err).Warn("LoopChannelWrite cant write")
				break loop
			}
			ps.DebugOutMessages++
		case <-ticker.C:
			_ = ps.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ps.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				break loop
			}
		}
	}
	// unblocks the read loop if the peer stopped answering
	ps.Close()
	ps.logger().Info("LoopChannelWrite ENDED")
}

func (ps *PlayerSession) requestContext() (context.Context, context.CancelFunc) {
	timeout := ps.server.Options.ReplyTimeout
	if timeout <= 0 {
		timeout = DefaultOptions().ReplyTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// reply answers a request that carried an ack id.
func (ps *PlayerSession) reply(cm model.ClientMessage, data interface{}) {
	if cm.Ack <= 0 {
		return
	}
	if err := ps.Send(model.ServerMessage{Event: model.EV_ACK, Ack: cm.Ack, Data: data}); err != nil {
		ps.logger().WithError(err).Warnf("dropping ack for %s", cm.Event)
	}
}

func (ps *PlayerSession) leaveRoom() {
	if ps.Room == nil {
		return
	}
	if err := ps.Room.Submit(leaveRequest{ConnId: ps.id}); err != nil {
		ps.logger().WithError(err).Debug("leave on closed room")
	}
	ps.Room = nil
	ps.State = PS_NEW
}
