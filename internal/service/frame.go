package service

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
)

const (
	headerSize = 8
	signalSize = 4

	// DefaultMaxFrameSize bounds the body a reader accepts.
	DefaultMaxFrameSize = 64 << 20
)

// Frame is one message on the wire:
//
//	<u32 BE size> <u32 BE signal> <UTF-8 JSON body>
//
// size counts the signal and the body, so an empty frame carries size 4.
type Frame struct {
	Signal Signal
	Body   []byte
}

// Size is the value written in the size header.
func (f *Frame) Size() uint32 {
	return uint32(len(f.Body) + signalSize)
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (f *Frame) Decode(v interface{}) error {
	if len(f.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(f.Body, v); err != nil {
		return fmt.Errorf("%w: decode %s body: %v", common.ErrEncoding, f.Signal, err)
	}
	return nil
}

// NewFrame serializes payload as the frame body. Nil and empty payloads
// produce a frame without a body.
func NewFrame(signal Signal, payload interface{}) (*Frame, error) {
	if !signal.Valid() {
		return nil, fmt.Errorf("%w: invalid signal %d", common.ErrProtocol, uint32(signal))
	}
	f := &Frame{Signal: signal}
	if payload == nil {
		return f, nil
	}
	body, ok := payload.([]byte)
	if !ok {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: encode %s body: %v", common.ErrEncoding, signal, err)
		}
	}
	if isEmptyJSON(body) {
		return f, nil
	}
	f.Body = body
	return f, nil
}

func isEmptyJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	switch string(trimmed) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}

// Bytes renders the frame with its header.
func (f *Frame) Bytes() []byte {
	buf := make([]byte, headerSize+len(f.Body))
	binary.BigEndian.PutUint32(buf[0:4], f.Size())
	binary.BigEndian.PutUint32(buf[4:8], uint32(f.Signal))
	copy(buf[headerSize:], f.Body)
	return buf
}

// Encode builds the wire bytes for signal and payload.
func Encode(signal Signal, payload interface{}) ([]byte, error) {
	f, err := NewFrame(signal, payload)
	if err != nil {
		return nil, err
	}
	return f.Bytes(), nil
}

// WriteFrame writes one frame to w.
func WriteFrame(w io.Writer, f *Frame) (int, error) {
	n, err := w.Write(f.Bytes())
	if err != nil {
		return n, fmt.Errorf("%w: write %s frame: %w", common.ErrConnection, f.Signal, err)
	}
	return n, nil
}

// ReadFrame reads one frame from r. Bodies larger than maxSize are rejected
// before they are read; a non-positive maxSize uses DefaultMaxFrameSize.
func ReadFrame(r io.Reader, maxSize int) (*Frame, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read frame header: %w", common.ErrConnection, err)
	}

	size := binary.BigEndian.Uint32(header[0:4])
	if size < signalSize {
		return nil, fmt.Errorf("%w: frame size %d below signal size", common.ErrProtocol, size)
	}
	bodyLen := int(size - signalSize)
	if bodyLen > maxSize {
		return nil, fmt.Errorf("%w: frame body of %d bytes exceeds %d", common.ErrProtocol, bodyLen, maxSize)
	}

	signal, err := ParseSignal(binary.BigEndian.Uint32(header[4:8]))
	if err != nil {
		return nil, err
	}

	f := &Frame{Signal: signal}
	if bodyLen > 0 {
		f.Body = make([]byte, bodyLen)
		if _, err := io.ReadFull(r, f.Body); err != nil {
			return nil, fmt.Errorf("%w: read %s body: %w", common.ErrConnection, signal, err)
		}
	}
	return f, nil
}
