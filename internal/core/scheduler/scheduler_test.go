package scheduler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/spacelife/internal/core/observability/log"
)

func TestEndToEndThreeRepeats(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := New(log.NewFromCore(core))

	var fireTimes []float64
	require.NoError(t, s.RegisterPrototype(Prototype{Name: "Test", Callback: Native(func(e *Event) error {
		fireTimes = append(fireTimes, 10*float64(4-e.RepeatsLeft()))
		return nil
	})}))

	evt, err := s.ScheduleEvent("Test", 10, 10, false, 3)
	require.NoError(t, err)

	s.Tick(35)
	assert.Equal(t, []float64{10, 20, 30}, fireTimes)
	assert.True(t, evt.Finished())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.IsRegistered(evt))

	require.NoError(t, evt.Fire())
	assert.Len(t, fireTimes, 3)
	assert.Equal(t, 1, logs.FilterMessage("event finished its last repeat already, not firing again").Len())
}

func TestForeverEventFiresFloorOfElapsedCooldowns(t *testing.T) {
	s := New(nil)
	n := 0
	evt, err := NewEvent("forever", counter(&n), 4, RepeatsForever())
	require.NoError(t, err)
	s.RegisterEvent(evt)

	s.Tick(10)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 2.0, evt.TimeToWait(), 1e-9)
	assert.Equal(t, 1, s.Len())
}

func TestRegisterNilAndDuplicates(t *testing.T) {
	s := New(nil)
	s.RegisterEvent(nil)
	assert.Equal(t, 0, s.Len())

	n := 0
	a, _ := NewEvent("same", counter(&n), 1)
	b, _ := NewEvent("same", counter(&n), 1)
	s.RegisterEvent(a)
	s.RegisterEvent(b)
	s.RegisterEvent(a)
	assert.Equal(t, 2, s.Len())

	s.Tick(1)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, s.Len())
}

func TestCallbacksMayMutateLiveSet(t *testing.T) {
	s := New(nil)
	var late *Event
	fired := map[string]int{}
	victim, _ := NewEvent("victim", Native(func(*Event) error {
		fired["victim"]++
		return nil
	}), 1, RepeatsForever())

	spawner, _ := NewEvent("spawner", Native(func(*Event) error {
		fired["spawner"]++
		s.DeregisterEvent(victim)
		late, _ = NewEvent("late", Native(func(*Event) error {
			fired["late"]++
			return nil
		}), 1)
		s.RegisterEvent(late)
		return nil
	}), 1)

	s.RegisterEvent(spawner)
	s.RegisterEvent(victim)

	s.Tick(1)
	assert.Equal(t, 1, fired["spawner"])
	assert.Equal(t, 0, fired["victim"])
	assert.Equal(t, 0, fired["late"])
	assert.Equal(t, []*Event{late}, s.Events())

	s.Tick(1)
	assert.Equal(t, 1, fired["late"])
	assert.Equal(t, 0, s.Len())
}

func TestFailingEventDoesNotBreakSweep(t *testing.T) {
	s := New(nil)
	good := 0
	bad, _ := NewEvent("bad", Native(func(*Event) error { panic("nil owner") }), 1, RepeatsForever())
	ok, _ := NewEvent("good", counter(&good), 1, RepeatsForever())
	s.RegisterEvent(bad)
	s.RegisterEvent(ok)

	s.Tick(1)
	s.Tick(1)
	assert.Equal(t, 2, good)
	assert.Equal(t, []*Event{ok}, s.Events())
	assert.Equal(t, uint64(1), s.Stats().Failed)
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	fires := 0
	proto := Prototype{Name: "Pulse", Callback: Native(func(*Event) error { fires++; return nil })}

	src := New(nil)
	require.NoError(t, src.RegisterPrototype(proto))
	forever, err := src.ScheduleEvent("Pulse", 10, 10, true, 0)
	require.NoError(t, err)
	limited, err := src.ScheduleEvent("Pulse", 4, 4, false, 3)
	require.NoError(t, err)
	transient, _ := NewEvent("Closure", counter(new(int)), 1, Transient(), RepeatsForever())
	src.RegisterEvent(transient)

	src.Tick(6)
	require.Equal(t, 1, fires)
	assert.InDelta(t, 4.0, forever.TimeToWait(), 1e-9)
	assert.InDelta(t, 2.0, limited.TimeToWait(), 1e-9)

	var buf bytes.Buffer
	require.NoError(t, src.WriteYAML(&buf))
	assert.NotContains(t, buf.String(), "Closure")

	dst := New(nil)
	require.NoError(t, dst.RegisterPrototype(proto))
	require.NoError(t, dst.ReadYAML(&buf))
	require.Equal(t, 2, dst.Len())

	restored := dst.Events()
	assert.Equal(t, recordOf(forever), recordOf(restored[0]))
	assert.Equal(t, recordOf(limited), recordOf(restored[1]))

	fires = 0
	dst.Tick(1)
	assert.Equal(t, 0, fires)
	dst.Tick(1)
	assert.Equal(t, 1, fires)
	assert.Equal(t, 1, restored[1].RepeatsLeft())
}

func TestLoadSkipsUnknownPrototypes(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.RegisterPrototype(Prototype{Name: "Known", Callback: Scripted("known")}))
	left := 2
	err := s.Load([]Record{
		{Name: "Known", Cooldown: 5, TimeToWait: 1, RepeatsLeft: &left},
		{Name: "Gone", Cooldown: 5, TimeToWait: 1, RepeatsForever: true},
		{Name: "Known", Cooldown: 0, TimeToWait: 1, RepeatsForever: true},
	})
	assert.ErrorIs(t, err, ErrUnknownPrototype)
	assert.ErrorIs(t, err, ErrInvalidCooldown)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"Known"}, s.PrototypeNames())
}

func TestScriptedEventsBindToSchedulerHost(t *testing.T) {
	calls := 0
	host := FuncTable{"on_pulse": func(e *Event) error { calls++; return nil }}
	s := New(nil, WithScriptHost(host))
	require.NoError(t, s.RegisterPrototype(Prototype{Name: "Pulse", Callback: Scripted("on_pulse")}))
	_, err := s.ScheduleEvent("Pulse", 1, 1, false, 2)
	require.NoError(t, err)

	s.Tick(2)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, s.Len())
}
