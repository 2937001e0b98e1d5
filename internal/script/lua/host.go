// Package lua hosts scripted scheduler callbacks on gopher-lua.
//
// A scripted event names a global Lua function. The function is looked up
// every time the event fires and receives a table describing the event:
//
//	function on_trader_visit(evt)
//	  log_info("visit " .. evt.name .. " left=" .. evt.repeats_left)
//	  if evt.last_shot then evt.stop() end
//	end
package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/scheduler"
)

var _ scheduler.ScriptHost = (*Host)(nil)

// Host owns one Lua state. Like the rest of the simulation it must only be
// used from the simulation goroutine.
type Host struct {
	state *lua.LState
	log   log.Log
}

func New(logger log.Log) *Host {
	if logger == nil {
		logger = log.NewNop()
	}
	h := &Host{state: lua.NewState(), log: logger.Named("lua")}
	h.state.SetGlobal("log_info", h.state.NewFunction(h.logAt(logger.Named("lua").Info)))
	h.state.SetGlobal("log_warn", h.state.NewFunction(h.logAt(logger.Named("lua").Warn)))
	return h
}

func (h *Host) logAt(fn func(string, ...log.Field)) lua.LGFunction {
	return func(L *lua.LState) int {
		fn(L.CheckString(1))
		return 0
	}
}

// LoadFile executes a script file, defining its global functions.
func (h *Host) LoadFile(path string) error {
	if err := h.state.DoFile(path); err != nil {
		return fmt.Errorf("load script %s: %w", path, err)
	}
	return nil
}

// LoadString executes Lua source.
func (h *Host) LoadString(src string) error {
	if err := h.state.DoString(src); err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	return nil
}

func (h *Host) Has(function string) bool {
	return h.state.GetGlobal(function).Type() == lua.LTFunction
}

func (h *Host) Call(function string, evt *scheduler.Event) error {
	fn := h.state.GetGlobal(function)
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("%w: %s", scheduler.ErrScriptNotFound, function)
	}
	h.log.Debug("calling script", log.String("function", function), log.String("event", evt.Name()))
	err := h.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, h.eventTable(evt))
	if err != nil {
		return fmt.Errorf("lua %s: %w", function, err)
	}
	return nil
}

// Bind exposes fn to scripts as a global taking one string argument. An
// error returned by fn is raised in the calling script.
func (h *Host) Bind(name string, fn func(arg string) error) {
	h.state.SetGlobal(name, h.state.NewFunction(func(L *lua.LState) int {
		if err := fn(L.CheckString(1)); err != nil {
			L.RaiseError("%s: %s", name, err.Error())
		}
		return 0
	}))
}

// Global exposes a global value, mostly for tests and debugging.
func (h *Host) Global(name string) lua.LValue {
	return h.state.GetGlobal(name)
}

func (h *Host) Close() {
	h.state.Close()
}

func (h *Host) eventTable(evt *scheduler.Event) *lua.LTable {
	L := h.state
	t := L.NewTable()
	L.SetField(t, "name", lua.LString(evt.Name()))
	L.SetField(t, "cooldown", lua.LNumber(evt.Cooldown()))
	L.SetField(t, "time_to_wait", lua.LNumber(evt.TimeToWait()))
	L.SetField(t, "repeats_left", lua.LNumber(evt.RepeatsLeft()))
	L.SetField(t, "repeats_forever", lua.LBool(evt.RepeatsForever()))
	L.SetField(t, "last_shot", lua.LBool(evt.LastShot()))
	if owner := evt.Owner(); owner != nil {
		L.SetField(t, "owner", lua.LString(owner.ID()))
	}
	L.SetField(t, "stop", L.NewFunction(func(*lua.LState) int {
		evt.Stop()
		return 0
	}))
	return t
}
