package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ClientMessage is one decoded inbound frame. Data stays encoded until the
// handler knows what payload type the event carries.
type ClientMessage struct {
	Event string
	Ack   int
	Data  []byte
	codec Codec
}

// ServerMessage is one outbound frame. Ack echoes the request id on replies.
type ServerMessage struct {
	Event string      `json:"event"`
	Ack   int         `json:"ack,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

type Codec interface {
	Name() string
	Binary() bool
	Encode(m ServerMessage) ([]byte, error)
	Decode(b []byte) (ClientMessage, error)
	Unmarshal(data []byte, v interface{}) error
}

const (
	CODEC_JSON    = "json"
	CODEC_MSGPACK = "msgpack"
)

var (
	JsonCodec    Codec = jsonCodec{}
	MsgpackCodec Codec = msgpackCodec{}
)

// CodecByName resolves the codec a client asked for; empty means json.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", CODEC_JSON:
		return JsonCodec, nil
	case CODEC_MSGPACK:
		return MsgpackCodec, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// DecodeData decodes the payload of cm into T using the codec the frame came in with.
func DecodeData[T any](cm ClientMessage) (T, error) {
	var out T
	if len(cm.Data) == 0 {
		return out, fmt.Errorf("empty payload for event %q", cm.Event)
	}
	c := cm.codec
	if c == nil {
		c = JsonCodec
	}
	err := c.Unmarshal(cm.Data, &out)
	return out, err
}

// NewClientMessage builds an inbound message by encoding data with c. Used by
// tests and by clients written in Go.
func NewClientMessage(c Codec, event string, ack int, data interface{}) (ClientMessage, error) {
	cm := ClientMessage{Event: event, Ack: ack, codec: c}
	if data == nil {
		return cm, nil
	}
	var (
		b   []byte
		err error
	)
	switch c.(type) {
	case msgpackCodec:
		b, err = msgpackMarshal(data)
	default:
		b, err = json.Marshal(data)
	}
	if err != nil {
		return cm, err
	}
	cm.Data = b
	return cm, nil
}

type jsonEnvelope struct {
	Event string          `json:"event"`
	Ack   int             `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return CODEC_JSON }
func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(m ServerMessage) ([]byte, error) {
	if m.Event == "" {
		return nil, fmt.Errorf("trying to encode message without event")
	}
	return json.Marshal(m)
}

func (jsonCodec) Decode(b []byte) (ClientMessage, error) {
	if len(b) == 0 {
		return ClientMessage{}, fmt.Errorf("decode frame of size 0")
	}
	var e jsonEnvelope
	if err := json.Unmarshal(b, &e); err != nil {
		return ClientMessage{}, err
	}
	if e.Event == "" {
		return ClientMessage{}, fmt.Errorf("frame without event")
	}
	return ClientMessage{Event: e.Event, Ack: e.Ack, Data: e.Data, codec: JsonCodec}, nil
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// msgpack frames reuse the json struct tags so payload types need one set of tags.
type msgpackEnvelope struct {
	Event string             `json:"event"`
	Ack   int                `json:"ack,omitempty"`
	Data  msgpack.RawMessage `json:"data,omitempty"`
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return CODEC_MSGPACK }
func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) Encode(m ServerMessage) ([]byte, error) {
	if m.Event == "" {
		return nil, fmt.Errorf("trying to encode message without event")
	}
	return msgpackMarshal(m)
}

func (c msgpackCodec) Decode(b []byte) (ClientMessage, error) {
	if len(b) == 0 {
		return ClientMessage{}, fmt.Errorf("decode frame of size 0")
	}
	var e msgpackEnvelope
	if err := c.Unmarshal(b, &e); err != nil {
		return ClientMessage{}, err
	}
	if e.Event == "" {
		return ClientMessage{}, fmt.Errorf("frame without event")
	}
	return ClientMessage{Event: e.Event, Ack: e.Ack, Data: []byte(e.Data), codec: MsgpackCodec}, nil
}

func (msgpackCodec) Unmarshal(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func msgpackMarshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
