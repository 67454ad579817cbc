package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureEvents(t *testing.T, fn func()) []Event {
	t.Helper()

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	fn()

	var events []Event
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var e Event
		require.NoError(t, json.Unmarshal(line, &e))
		events = append(events, e)
	}
	return events
}

func TestLoggerEmitsJSON(t *testing.T) {
	SetLevel("info")
	log := New("mtc")

	events := captureEvents(t, func() {
		log.Info("login", map[string]interface{}{"user": "x"})
		log.Error("submit", nil, errors.New("boom"))
	})

	require.Len(t, events, 2)
	assert.Equal(t, "mtc", events[0].Component)
	assert.Equal(t, "login", events[0].Event)
	assert.Equal(t, LevelInfo, events[0].Level)
	assert.Equal(t, "x", events[0].Extra["user"])
	assert.Equal(t, "boom", events[1].Error)
}

func TestLevelFilter(t *testing.T) {
	SetLevel("warn")
	defer SetLevel("info")
	log := New("test")

	events := captureEvents(t, func() {
		log.Debug("hidden", nil)
		log.Info("hidden", nil)
		log.Warn("shown", nil, nil)
	})

	require.Len(t, events, 1)
	assert.Equal(t, "shown", events[0].Event)
}

func TestSetLevelConcurrentWithEmit(t *testing.T) {
	defer SetLevel("info")
	log := New("test")

	events := captureEvents(t, func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				log.Info("tick", nil)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				SetLevel("warn")
				SetLevel("info")
			}
		}()
		wg.Wait()
	})

	// Every emitted line must still be well-formed JSON; captureEvents
	// fails the test on any torn write.
	for _, e := range events {
		assert.Equal(t, "tick", e.Event)
	}
}

func TestRunIDStable(t *testing.T) {
	SetLevel("info")
	log := New("test")

	events := captureEvents(t, func() {
		log.Info("a", nil)
		log.Info("b", nil)
	})

	require.Len(t, events, 2)
	assert.NotEmpty(t, events[0].RunID)
	assert.Equal(t, events[0].RunID, events[1].RunID)
	assert.Equal(t, RunID(), events[0].RunID)
}
