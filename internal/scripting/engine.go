package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for balance overrides.
// Single-goroutine access only (game loop) — no locks.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. A missing directory is not an error: every hook has a Go
// default, so a server without scripts runs on built-in balance.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}

	balancePath := filepath.Join(scriptsDir, "balance")
	if err := e.loadDir(balancePath); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load balance scripts: %w", err)
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// CanSpawn calls the Lua can_spawn hook to let scripts veto a spawn.
// Returns true when the hook is absent.
func (e *Engine) CanSpawn(template, area string) bool {
	fn := e.vm.GetGlobal("can_spawn")
	if fn == lua.LNil {
		return true
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(template), lua.LString(area)); err != nil {
		e.log.Error("lua can_spawn error", zap.Error(err))
		return true
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	return result != lua.LFalse && result != lua.LNil
}

// KillCoinsContext holds pre-packed data for the kill-reward adjustment.
type KillCoinsContext struct {
	Template   string
	Area       string
	KillerID   int64
	BaseCoins  float64
	CoinFactor float64
}

// CalcKillCoins calls the Lua calc_kill_coins hook to adjust the final
// coin reward for a kill. Returns the base amount unchanged when the
// hook is absent or fails.
func (e *Engine) CalcKillCoins(ctx KillCoinsContext) float64 {
	fn := e.vm.GetGlobal("calc_kill_coins")
	if fn == lua.LNil {
		return ctx.BaseCoins
	}

	t := e.vm.NewTable()
	t.RawSetString("template", lua.LString(ctx.Template))
	t.RawSetString("area", lua.LString(ctx.Area))
	t.RawSetString("killer_id", lua.LNumber(ctx.KillerID))
	t.RawSetString("base_coins", lua.LNumber(ctx.BaseCoins))
	t.RawSetString("coin_factor", lua.LNumber(ctx.CoinFactor))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_kill_coins error", zap.Error(err))
		return ctx.BaseCoins
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_kill_coins returned non-number")
		return ctx.BaseCoins
	}
	return float64(n)
}

// Close releases the underlying Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
