package simulation

import (
	"bytes"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/spacelife/internal/core/buildable"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/power"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/scheduler"
	"github.com/zeusync/spacelife/internal/core/traffic"
	"github.com/zeusync/spacelife/internal/script/lua"
)

func testCatalog(t *testing.T) *prototype.Catalog {
	t.Helper()
	c, err := prototype.Build(prototype.File{
		Inventory: []prototype.Inventory{{Type: "Ore", MaxStackSize: 50}, {Type: "Steel", MaxStackSize: 50}},
		Events: []prototype.Event{
			{Name: "Pulse", OnFire: "on_pulse"},
			{Name: "Mined", OnFire: "on_mined"},
		},
		Buildables: []prototype.Buildable{
			{Type: "Landing Pad", Width: 3, Height: 3, MovementCost: 1, Tags: []string{traffic.LandingPadTag}},
			{Type: "Smelter", MovementCost: 0, Workshop: &prototype.Workshop{Chains: []prototype.ProductionChain{{
				Name:           "Smelt",
				ProcessingTime: 5,
				Input:          []prototype.Item{{ObjectType: "Ore", Amount: 2, SlotPosX: 1}},
				Output:         []prototype.Item{{ObjectType: "Steel", Amount: 1, SlotPosX: -1}},
			}}}},
		},
		Needs:   []prototype.Need{{Type: "Oxygen", GrowthRate: 1, RestoreBuildable: "Oxygen Tank", RestoreTime: 1}},
		Traders: []prototype.Ship{{Type: "Merchant"}},
		Drones:  []prototype.Ship{{Type: "Mining Drone"}},
	})
	require.NoError(t, err)
	return c
}

func newSim(t *testing.T, host scheduler.ScriptHost) *Simulation {
	t.Helper()
	s, err := New(Options{Width: 20, Height: 20, Depth: 1, Seed: 42}, testCatalog(t), host, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func eventNames(s *scheduler.Scheduler) []string {
	var names []string
	for _, e := range s.Events() {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

func TestPauseAndTimeScale(t *testing.T) {
	s, err := New(Options{Width: 4, Height: 4, Depth: 1, StartPaused: true}, testCatalog(t), nil, nil)
	require.NoError(t, err)

	s.FixedUpdate(1)
	assert.Zero(t, s.Elapsed())
	assert.Zero(t, s.Scheduler().Stats().Ticks)

	s.Resume()
	s.FixedUpdate(1)
	assert.Equal(t, 1.0, s.Elapsed())

	require.NoError(t, s.SetTimeScale(2))
	s.FixedUpdate(1)
	assert.Equal(t, 3.0, s.Elapsed())
	assert.ErrorIs(t, s.SetTimeScale(0), ErrInvalidTimeScale)

	_, err = New(Options{Width: 4, Height: 4, Depth: 1, TimeScale: -1}, testCatalog(t), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTimeScale)
}

func TestScriptedPrototypesFireThroughHost(t *testing.T) {
	fired := 0
	s := newSim(t, scheduler.FuncTable{"on_pulse": func(*scheduler.Event) error { fired++; return nil }})
	_, err := s.Scheduler().ScheduleEvent("Pulse", 1, 1, false, 3)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		s.FixedUpdate(1)
	}
	assert.Equal(t, 3, fired)
	assert.Equal(t, []string{traffic.EvaluateTraderVisit, power.TickEvent}, eventNames(s.Scheduler()))
}

func TestMiningCompleteFromScript(t *testing.T) {
	host := lua.New(nil)
	defer host.Close()
	s := newSim(t, host)
	pad, err := s.Place("Landing Pad", 5, 5, 0)
	require.NoError(t, err)
	require.NoError(t, host.LoadString(fmt.Sprintf(`function on_mined(evt) mining_complete(%q) end`, pad.ID())))

	_, err = s.Scheduler().ScheduleEvent("Mined", 1, 1, false, 1)
	require.NoError(t, err)
	s.FixedUpdate(1)
	assert.True(t, traffic.IsMineComplete(pad))
	assert.Contains(t, eventNames(s.Scheduler()), traffic.EvaluateMiningDroneVisit)

	smelter, err := s.Place("Smelter", 10, 10, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, s.MiningComplete(smelter), ErrNotLandingPad)
}

func TestLandingPadDefinesDroneParams(t *testing.T) {
	s := newSim(t, nil)
	pad, err := s.Place("Landing Pad", 5, 5, 0)
	require.NoError(t, err)
	assert.True(t, pad.Params().Has(traffic.ParamMineComplete))
	assert.False(t, traffic.IsMineComplete(pad))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	host := scheduler.FuncTable{"on_pulse": func(*scheduler.Event) error { return nil }}
	src := newSim(t, host)
	_, err := src.Scheduler().ScheduleEvent("Pulse", 4, 2.5, false, 2)
	require.NoError(t, err)
	pad, err := src.Place("Landing Pad", 2, 2, 0)
	require.NoError(t, err)
	pad.Store("Ore", 7)
	smelter, err := src.Place("Smelter", 10, 10, 0)
	require.NoError(t, err)
	require.NoError(t, smelter.Params().SetFloat(buildable.ParamProcessingTime, 2.5))
	ada, err := src.AddCharacter("Ada", 1, 1, 0)
	require.NoError(t, err)
	oxygen, ok := ada.Need("Oxygen")
	require.True(t, ok)
	oxygen.SetAmount(30)

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))

	dst := newSim(t, host)
	require.NoError(t, dst.Load(bytes.NewReader(buf.Bytes())))

	records := dst.Scheduler().Save()
	require.Len(t, records, 2)
	assert.Equal(t, traffic.EvaluateTraderVisit, records[0].Name)
	assert.Equal(t, "Pulse", records[1].Name)
	assert.Equal(t, 2.5, records[1].TimeToWait)
	require.NotNil(t, records[1].RepeatsLeft)
	assert.Equal(t, 2, *records[1].RepeatsLeft)
	assert.Contains(t, eventNames(dst.Scheduler()), power.TickEvent)

	assert.Equal(t, 2, dst.Buildables().Len())
	pads := dst.Buildables().Find(func(b *buildable.Buildable) bool { return b.HasTag(traffic.LandingPadTag) })
	require.Len(t, pads, 1)
	assert.Equal(t, 7, pads[0].Stored("Ore"))
	smelters := dst.Buildables().Find(func(b *buildable.Buildable) bool { return b.Type() == "Smelter" })
	require.Len(t, smelters, 1)
	got, err := smelters[0].Params().Float(buildable.ParamProcessingTime)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)
	chain, err := smelters[0].Params().String(buildable.ParamProductionChain)
	require.NoError(t, err)
	assert.Equal(t, "Smelt", chain)

	require.Len(t, dst.Characters(), 1)
	restored, ok := dst.Characters()[0].Need("Oxygen")
	require.True(t, ok)
	assert.Equal(t, 30.0, restored.Amount())

	// Loading over the same simulation reuses what is already placed.
	require.NoError(t, src.Load(bytes.NewReader(buf.Bytes())))
	assert.Equal(t, 2, src.Buildables().Len())
	assert.Len(t, src.Characters(), 1)
	assert.Len(t, src.Scheduler().Save(), 2)
}

func TestLoadCallsDroneForWaitingPad(t *testing.T) {
	src := newSim(t, nil)
	pad, err := src.Place("Landing Pad", 2, 2, 0)
	require.NoError(t, err)
	require.NoError(t, src.MiningComplete(pad))

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))

	dst := newSim(t, nil)
	require.NoError(t, dst.Load(&buf))
	assert.Contains(t, eventNames(dst.Scheduler()), traffic.EvaluateMiningDroneVisit)
}

func TestLoadRejectsBadSaves(t *testing.T) {
	s := newSim(t, nil)

	tampered, err := yaml.Marshal(envelope{Version: saveVersion, Checksum: "bad", State: "elapsed: 1\n"})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Load(bytes.NewReader(tampered)), ErrChecksumMismatch)

	future, err := yaml.Marshal(envelope{Version: saveVersion + 1})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Load(bytes.NewReader(future)), ErrSaveVersion)
	assert.Zero(t, s.Elapsed())
}

func TestFixedUpdateDrivesCharacters(t *testing.T) {
	s := newSim(t, nil)
	c, err := s.AddCharacter("Ada", 0, 0, 0)
	require.NoError(t, err)
	oxygen, _ := c.Need("Oxygen")

	s.FixedUpdate(0.5)
	s.FixedUpdate(0.5)
	assert.InDelta(t, 1.0, oxygen.Amount(), 1e-9)
	assert.NotNil(t, c.State())

	_, err = s.AddCharacter("Nowhere", 99, 99, 0)
	assert.ErrorIs(t, err, ErrNoTile)
}

func TestLogsCarrySimulationTime(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s, err := New(Options{Width: 4, Height: 4, Depth: 1}, testCatalog(t), nil, log.NewFromCore(core))
	require.NoError(t, err)
	defer s.Close()

	s.FixedUpdate(2)
	s.Log().Info("checkpoint")

	entries := logs.FilterMessage("checkpoint").All()
	require.Len(t, entries, 1)
	assert.Equal(t, 2.0, entries[0].ContextMap()[log.SimTimeKey])
}
