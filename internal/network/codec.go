package network

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Wire formats accepted by NewCodec.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Codec encodes outgoing messages and decodes incoming actions for one wire
// format.
type Codec interface {
	Name() string
	// FrameType is the websocket message type used for encoded messages.
	FrameType() int
	// Batched reports whether queued messages may share one frame,
	// separated by newlines.
	Batched() bool
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// NewCodec returns the codec for format. An empty format means JSON.
func NewCodec(format string) (Codec, error) {
	switch format {
	case "", FormatJSON:
		return jsonCodec{}, nil
	case FormatMsgpack:
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown wire format %q", format)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string                               { return FormatJSON }
func (jsonCodec) FrameType() int                             { return websocket.TextMessage }
func (jsonCodec) Batched() bool                              { return true }
func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// msgpackCodec reuses the json struct tags so every payload type has the
// same field names on both formats.
type msgpackCodec struct{}

func (msgpackCodec) Name() string   { return FormatMsgpack }
func (msgpackCodec) FrameType() int { return websocket.BinaryMessage }
func (msgpackCodec) Batched() bool  { return false }

func (msgpackCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// decodeAction picks the decoder from the frame type so a client may send
// JSON text actions regardless of the server's outgoing format.
func decodeAction(frameType int, data []byte, action *PlayerAction) error {
	if frameType == websocket.BinaryMessage {
		return msgpackCodec{}.Unmarshal(data, action)
	}
	return json.Unmarshal(data, action)
}
