package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zucenko/stakeroom/model"
)

const testLevel = "p1 TR I1 DO \n"

type frame struct {
	Event string          `json:"event"`
	Ack   int             `json:"ack"`
	Data  json.RawMessage `json:"data"`
}

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.txt"), []byte(testLevel), 0o644))
	cfg, err := configFromEnv(envOf(map[string]string{"LEVELS_DIR": dir}))
	require.NoError(t, err)

	s := NewServer(cfg)
	hs := httptest.NewServer(s.router)
	t.Cleanup(func() {
		s.GameServer.Shutdown()
		hs.Close()
	})
	return s, hs
}

func dial(t *testing.T, hs *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(hs.URL, "http") + URI_WS + query
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func emit(t *testing.T, c *websocket.Conn, event string, ack int, data interface{}) {
	t.Helper()
	m := map[string]interface{}{"event": event, "ack": ack}
	if data != nil {
		m["data"] = data
	}
	require.NoError(t, c.WriteJSON(m))
}

// await reads frames until one carries event.
func await(t *testing.T, c *websocket.Conn, event string) frame {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f frame
		require.NoError(t, c.ReadJSON(&f))
		if f.Event == event {
			return f
		}
	}
}

func TestMatchOverWebsocket(t *testing.T) {
	_, hs := testServer(t)
	host, guest := dial(t, hs, ""), dial(t, hs, "")

	emit(t, host, model.EV_CREATE_ROOM, 1, nil)
	var code string
	require.NoError(t, json.Unmarshal(await(t, host, model.EV_ACK).Data, &code))
	require.Len(t, code, 5)

	emit(t, guest, model.EV_JOIN_ROOM, 2, model.JoinRoom{RoomCode: strings.ToLower(code), Name: "bob"})
	var jr model.JoinReply
	require.NoError(t, json.Unmarshal(await(t, guest, model.EV_ACK).Data, &jr))
	assert.True(t, jr.Success)

	emit(t, host, model.EV_PLAYER_READY, 0, model.Ready{Name: "alice", Address: "wallet-a"})
	emit(t, guest, model.EV_PLAYER_READY, 0, model.Ready{Name: "bob", Address: "wallet-b"})

	var sg model.StartGame
	require.NoError(t, json.Unmarshal(await(t, host, model.EV_START_GAME).Data, &sg))
	assert.Equal(t, testLevel, sg.LevelText)
	assert.Equal(t, "wallet-a", sg.Player1Address)
	require.Len(t, sg.Collectibles, 2)
	await(t, guest, model.EV_START_GAME)

	emit(t, host, model.EV_COLLECT_COLLECTIBLE, 0, sg.Collectibles[0].Id)
	emit(t, guest, model.EV_COLLECT_COLLECTIBLE, 0, sg.Collectibles[0].Id)
	var cc model.CollectibleCollected
	require.NoError(t, json.Unmarshal(await(t, guest, model.EV_COLLECTIBLE_COLLECTED).Data, &cc))
	assert.Equal(t, 10, cc.Score)

	emit(t, host, model.EV_PLAYER_FINISHED, 0, model.Finished{Name: "alice", Score: 10, Time: 900})
	emit(t, guest, model.EV_PLAYER_FINISHED, 0, model.Finished{Name: "bob", Score: 0, Time: 1000})

	var res model.GameResult
	require.NoError(t, json.Unmarshal(await(t, guest, model.EV_GAME_RESULT).Data, &res))
	assert.False(t, res.Tie)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "alice", res.Winner.Name)
	assert.Equal(t, 2, res.Winner.Total)
}

func TestDisconnectNotifiesOpponent(t *testing.T) {
	_, hs := testServer(t)
	host, guest := dial(t, hs, ""), dial(t, hs, "")

	emit(t, host, model.EV_CREATE_ROOM, 1, nil)
	var code string
	require.NoError(t, json.Unmarshal(await(t, host, model.EV_ACK).Data, &code))
	emit(t, guest, model.EV_JOIN_ROOM, 1, code)
	await(t, guest, model.EV_ACK)
	emit(t, host, model.EV_PLAYER_READY, 0, model.Ready{Name: "alice"})
	emit(t, guest, model.EV_PLAYER_READY, 0, model.Ready{Name: "bob"})
	await(t, host, model.EV_START_GAME)

	require.NoError(t, guest.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	guest.Close()

	f := await(t, host, model.EV_PLAYER_DISCONNECTED)
	var id string
	require.NoError(t, json.Unmarshal(f.Data, &id))
	assert.NotEmpty(t, id)
}

func TestMsgpackCodec(t *testing.T) {
	_, hs := testServer(t)
	c := dial(t, hs, "?codec=msgpack")

	b, err := msgpack.Marshal(map[string]interface{}{"event": model.EV_CREATE_ROOM, "ack": 5})
	require.NoError(t, err)
	require.NoError(t, c.WriteMessage(websocket.BinaryMessage, b))

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	mt, data, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, mt)

	var reply map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(data, &reply))
	assert.Equal(t, model.EV_ACK, reply["event"])
	assert.Len(t, reply["data"], 5)
}

func TestUnknownCodecRejected(t *testing.T) {
	_, hs := testServer(t)
	url := "ws" + strings.TrimPrefix(hs.URL, "http") + URI_WS + "?codec=xml"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHttpRoutes(t *testing.T) {
	s, hs := testServer(t)
	code := s.GameServer.CreateRoom()

	resp, err := http.Get(hs.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(hs.URL + "/rooms/" + code)
	require.NoError(t, err)
	var info model.RoomInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()
	assert.True(t, info.Success)
	assert.Equal(t, code, info.Code)

	resp, err = http.Get(hs.URL + "/rooms/QQQQQ")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(hs.URL + "/rooms")
	require.NoError(t, err)
	var rooms []model.RoomInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	resp.Body.Close()
	assert.Len(t, rooms, 1)

	resp, err = http.Get(hs.URL + "/assets/levels/1.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, testLevel, string(body))

	resp, err = http.Get(hs.URL + "/assets/levels/secret.env")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
