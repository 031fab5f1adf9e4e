package service

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeClient returns a client whose every dial is answered by handler.
func pipeClient(t *testing.T, cfg Config, handler func(conn net.Conn)) *Client {
	t.Helper()
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	c := NewClient(cfg, nil, nil)
	c.SetDialer(func(ctx context.Context, network, address string) (net.Conn, error) {
		client, server := net.Pipe()
		go func() {
			defer server.Close()
			handler(server)
		}()
		return client, nil
	})
	return c
}

func reply(t *testing.T, conn net.Conn, signal Signal, payload interface{}) {
	f, err := NewFrame(signal, payload)
	if err != nil {
		t.Errorf("build reply: %v", err)
		return
	}
	_, _ = WriteFrame(conn, f)
}

func TestClient_Status(t *testing.T) {
	c := pipeClient(t, Config{Name: "collector", Type: TypeCollector, Address: "pipe"}, func(conn net.Conn) {
		req, err := ReadFrame(conn, 0)
		if err != nil || req.Signal != SignalStatus || len(req.Body) != 0 {
			t.Errorf("unexpected status request: %v %v", req, err)
			return
		}
		reply(t, conn, SignalStatus, map[string]interface{}{"instance_id": 1, "service_loaded": true})
	})

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, status["service_loaded"])
	assert.Equal(t, 1.0, status["instance_id"])
}

func TestClient_AddDataSendsBatch(t *testing.T) {
	received := make(chan *Frame, 1)
	c := pipeClient(t, Config{Type: TypeCollector, Address: "pipe"}, func(conn net.Conn) {
		f, err := ReadFrame(conn, 0)
		if err != nil {
			t.Errorf("read: %v", err)
			return
		}
		received <- f
	})

	batch := NewBatch(model.NewCollector(map[string]interface{}{"id": 1, "data_series_input": 2, "data_series_output": 3}))
	require.NoError(t, c.AddData(context.Background(), batch))

	f := <-received
	assert.Equal(t, SignalAddData, f.Signal)
	var body map[string]interface{}
	require.NoError(t, f.Decode(&body))
	collectors := body[KeyCollectors].([]interface{})
	require.Len(t, collectors, 1)
	assert.Equal(t, 2.0, collectors[0].(map[string]interface{})["input_data_series"])
}

func TestClient_LogFlattensReply(t *testing.T) {
	c := pipeClient(t, Config{Type: TypeAnalysis, Address: "pipe"}, func(conn net.Conn) {
		req, err := ReadFrame(conn, 0)
		if err != nil {
			t.Errorf("read: %v", err)
			return
		}
		var lr LogRequest
		if err := req.Decode(&lr); err != nil || lr.End != 2 || len(lr.ProcessIDs) != 2 {
			t.Errorf("unexpected log request %+v: %v", lr, err)
		}
		// an unrelated frame first
		reply(t, conn, SignalProcessFinished, map[string]interface{}{"process_id": 7})
		reply(t, conn, SignalLog, []interface{}{
			map[string]interface{}{
				"instance_id": 1,
				"process_id":  7,
				"log": []interface{}{
					map[string]interface{}{"id": 1, "status": 4, "start_timestamp": "2016-07-01T10:00:00.000Z"},
					map[string]interface{}{"id": 2, "status": 1, "messages": []interface{}{
						map[string]interface{}{"type": 1, "description": "no data", "timestamp": "2016-07-01T10:00:05.000Z"},
					}},
				},
			},
		})
	})

	logs, err := c.Log(context.Background(), LogRequest{ProcessIDs: []int64{7, 8}})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, int64(7), *logs[0].ProcessID)
	assert.Equal(t, int64(1), *logs[1].InstanceID)
	assert.False(t, logs[0].HasErrors())
	assert.True(t, logs[1].HasErrors())
	assert.Equal(t, "no data", logs[1].Messages[0].Description)
}

func TestClient_StartProcessPayload(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	c := pipeClient(t, Config{Type: TypeAnalysis, Address: "pipe"}, func(conn net.Conn) {
		f, err := ReadFrame(conn, 0)
		if err != nil {
			t.Errorf("read: %v", err)
			return
		}
		var body map[string]interface{}
		_ = f.Decode(&body)
		received <- body
	})

	at := time.Date(2017, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.StartProcess(context.Background(), []int64{3}, at))
	body := <-received
	assert.Equal(t, []interface{}{3.0}, body["ids"])
	assert.Equal(t, "2017-03-01T12:00:00Z", body["execution_date"])
}

func TestClient_Timeout(t *testing.T) {
	c := pipeClient(t, Config{Type: TypeView, Address: "pipe", Timeout: 50 * time.Millisecond}, func(conn net.Conn) {
		_, _ = ReadFrame(conn, 0)
		time.Sleep(200 * time.Millisecond)
	})

	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTimeout), err.Error())
}

func TestClient_ClosedBeforeReply(t *testing.T) {
	c := pipeClient(t, Config{Type: TypeView, Address: "pipe"}, func(conn net.Conn) {
		_, _ = ReadFrame(conn, 0)
	})

	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConnection), err.Error())
}

func TestClient_DialFailure(t *testing.T) {
	c := NewClient(Config{Type: TypeAlert, Address: "nowhere"}, nil, nil)
	c.SetDialer(func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	})
	err := c.Send(context.Background(), SignalAddData, nil)
	assert.True(t, errors.Is(err, common.ErrUnavailable))
}

func TestDispatcher_AddDataReachesEveryInstance(t *testing.T) {
	received := make(chan string, 4)
	handler := func(name string) func(net.Conn) {
		return func(conn net.Conn) {
			if _, err := ReadFrame(conn, 0); err == nil {
				received <- name
			}
		}
	}
	a := pipeClient(t, Config{ID: 1, Type: TypeCollector, Address: "a:1"}, handler("a"))
	b := pipeClient(t, Config{ID: 2, Type: TypeAnalysis, Address: "b:1"}, handler("b"))
	broken := NewClient(Config{ID: 3, Type: TypeView, Address: "c:1"}, nil, nil)
	broken.SetDialer(func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("refused")
	})

	d := NewDispatcher(nil, a, b, broken)
	assert.Len(t, d.Clients(""), 3)
	assert.Len(t, d.Clients(TypeAnalysis), 1)

	batch := NewBatch(model.NewStorage(map[string]interface{}{"id": 1}))
	err := d.AddData(context.Background(), batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c:1")
	assert.True(t, errors.Is(err, common.ErrUnavailable))

	// AddData does not wait for a reply, so the handlers may still be running.
	seen := map[string]int{}
	for i := 0; i < 2; i++ {
		select {
		case name := <-received:
			seen[name]++
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of 2 instances received the batch", i)
		}
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, seen)

	assert.NoError(t, d.AddData(context.Background(), NewBatch()))
}

func TestDispatcher_StartProcessUnknownInstance(t *testing.T) {
	d := NewDispatcher(nil)
	err := d.StartProcess(context.Background(), 9, []int64{1}, time.Time{})
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestDispatcher_Status(t *testing.T) {
	up := pipeClient(t, Config{Type: TypeCollector, Address: "up:1"}, func(conn net.Conn) {
		_, _ = ReadFrame(conn, 0)
		reply(t, conn, SignalStatus, nil)
	})
	down := NewClient(Config{Type: TypeCollector, Address: "down:1"}, nil, nil)
	down.SetDialer(func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("refused")
	})

	statuses := NewDispatcher(nil, up, down).Status(context.Background())
	assert.NoError(t, statuses["up:1"])
	assert.Error(t, statuses["down:1"])
}

func TestDispatcher_ConfigsAndLog(t *testing.T) {
	analysis := pipeClient(t, Config{ID: 2, Type: TypeAnalysis, Address: "b:1"}, func(conn net.Conn) {
		if _, err := ReadFrame(conn, 0); err != nil {
			return
		}
		reply(t, conn, SignalLog, []interface{}{
			map[string]interface{}{"instance_id": 2, "process_id": 5, "log": []interface{}{
				map[string]interface{}{"id": 9, "status": 4},
			}},
		})
	})
	collector := NewClient(Config{ID: 1, Type: TypeCollector, Address: "a:1"}, nil, nil)

	d := NewDispatcher(nil, analysis, collector)
	configs := d.Configs()
	require.Len(t, configs, 2)
	assert.Equal(t, "a:1", configs[0].Address)
	assert.Equal(t, TypeAnalysis, configs[1].Type)

	logs, err := d.Log(context.Background(), 2, LogRequest{ProcessIDs: []int64{5}})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, int64(5), *logs[0].ProcessID)

	_, err = d.Log(context.Background(), 7, LogRequest{})
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
