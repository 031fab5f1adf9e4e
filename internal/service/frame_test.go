package service

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/TerraMA2/terrama2-sub002/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_EmptyPayloads(t *testing.T) {
	want := []byte{0, 0, 0, 4, 0, 0, 0, 1}
	for _, payload := range []interface{}{nil, map[string]interface{}{}, []interface{}{}, []byte("{}")} {
		got, err := Encode(SignalStatus, payload)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEncode_SizeCountsUTF8Bytes(t *testing.T) {
	got, err := Encode(SignalAddData, map[string]interface{}{"name": "São Paulo"})
	require.NoError(t, err)

	body := got[8:]
	assert.JSONEq(t, `{"name":"São Paulo"}`, string(body))
	assert.Equal(t, uint32(len(body)+4), binary.BigEndian.Uint32(got[0:4]))
	assert.Equal(t, uint32(SignalAddData), binary.BigEndian.Uint32(got[4:8]))
	// "ã" takes two bytes
	assert.Greater(t, len(body), len([]rune(string(body))))
}

func TestEncode_InvalidSignal(t *testing.T) {
	_, err := Encode(Signal(42), nil)
	assert.True(t, errors.Is(err, common.ErrProtocol))
}

func TestReadFrame_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	first, err := NewFrame(SignalLog, map[string]interface{}{"process_ids": []int{1}})
	require.NoError(t, err)
	second, err := NewFrame(SignalTerminateService, nil)
	require.NoError(t, err)
	_, err = WriteFrame(&buf, first)
	require.NoError(t, err)
	_, err = WriteFrame(&buf, second)
	require.NoError(t, err)

	got, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, SignalLog, got.Signal)
	var decoded map[string]interface{}
	require.NoError(t, got.Decode(&decoded))
	assert.Equal(t, []interface{}{1.0}, decoded["process_ids"])

	got, err = ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, SignalTerminateService, got.Signal)
	assert.Empty(t, got.Body)
	assert.Equal(t, uint32(4), got.Size())

	_, err = ReadFrame(&buf, 0)
	assert.Equal(t, io.EOF, err)
}

func header(size, signal uint32) []byte {
	h := make([]byte, 8)
	binary.BigEndian.PutUint32(h[0:4], size)
	binary.BigEndian.PutUint32(h[4:8], signal)
	return h
}

func TestReadFrame_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		max   int
		want  error
	}{
		{"size below signal", header(3, 1), 0, common.ErrProtocol},
		{"unknown signal", header(4, 99), 0, common.ErrProtocol},
		{"too large", header(1004, 2), 100, common.ErrProtocol},
		{"truncated body", append(header(10, 2), '{'), 0, common.ErrConnection},
		{"truncated header", []byte{0, 0}, 0, common.ErrConnection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFrame(bytes.NewReader(tt.input), tt.max)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
		})
	}
}

func TestFrame_DecodeErrors(t *testing.T) {
	f := &Frame{Signal: SignalStatus, Body: []byte("{not json")}
	var out map[string]interface{}
	assert.True(t, errors.Is(f.Decode(&out), common.ErrEncoding))
}

func TestSignal_String(t *testing.T) {
	assert.Equal(t, "ADD_DATA", SignalAddData.String())
	assert.Equal(t, "SIGNAL(77)", Signal(77).String())
	_, err := ParseSignal(9)
	assert.Error(t, err)
	s, err := ParseSignal(8)
	require.NoError(t, err)
	assert.Equal(t, SignalValidateProcess, s)
}
