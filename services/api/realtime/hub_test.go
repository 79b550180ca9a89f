package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

func TestNewEnvelope(t *testing.T) {
	u := Update{
		Category: reading.Water,
		Data: reading.Entry{ID: "e1", Reading: reading.Reading{
			Building: reading.Labs, Category: reading.Water, TS: 1, Time: "00:00", Value: 600, Unit: "L",
		}},
	}

	msg, err := NewEnvelope(TypeDataUpdate, u)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, "dataUpdate", env.Type)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &parsed))
	assert.Equal(t, "water", parsed["category"])
	data := parsed["data"].(map[string]any)
	assert.Equal(t, "e1", data["id"])
	assert.Equal(t, "Labs", data["building"])
	assert.Equal(t, 600.0, data["value"])
}

func TestNewEnvelope_NoPayload(t *testing.T) {
	msg, err := NewEnvelope(TypeDataUpdate, nil)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, TypeDataUpdate, env.Type)
	assert.Nil(t, env.Payload)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(quietLogger())

	c := &Client{
		hub:  hub,
		send: make(chan []byte, 16),
	}

	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-c.send
	assert.False(t, open)

	// A second unregister is a no-op.
	hub.Unregister(c)
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(quietLogger())

	c1 := &Client{hub: hub, send: make(chan []byte, 16)}
	c2 := &Client{hub: hub, send: make(chan []byte, 16)}

	hub.Register(c1)
	hub.Register(c2)

	msg := []byte(`{"type":"test"}`)
	hub.Broadcast(msg)

	assert.Equal(t, msg, <-c1.send)
	assert.Equal(t, msg, <-c2.send)
}

func TestHub_BroadcastDropsForFullClient(t *testing.T) {
	var logs bytes.Buffer
	hub := NewHub(slog.New(slog.NewTextHandler(&logs, nil)))

	slow := &Client{hub: hub, send: make(chan []byte, 1)}
	fast := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.Register(slow)
	hub.Register(fast)

	hub.Broadcast([]byte("1"))
	hub.Broadcast([]byte("2"))

	assert.Len(t, slow.send, 1)
	assert.Equal(t, []byte("1"), <-slow.send)
	assert.Len(t, fast.send, 2)
	assert.Contains(t, logs.String(), "dropping message")
}

func TestHub_PublishSendsDataUpdate(t *testing.T) {
	hub := NewHub(quietLogger())
	c := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.Register(c)

	err := hub.Publish(context.Background(), Update{Category: reading.Food, Data: reading.Entry{ID: "x"}})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(<-c.send, &env))
	assert.Equal(t, TypeDataUpdate, env.Type)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(quietLogger())
	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(c)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())
	_, open := <-c.send
	assert.False(t, open)
}
