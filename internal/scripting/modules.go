package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/incremental/internal/game/dice"
)

// registerModules installs the engine global:
//
//	engine.log.debug|info|warn|error(msg)
//	engine.dice.roll(n)  -- uniform integer in [1, n]; 0 when n < 1
//
// Precondition: L must be from NewSandboxedState; logger and src non-nil.
func registerModules(L *lua.LState, logger *zap.Logger, src dice.Source) {
	engine := L.NewTable()

	logTbl := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
		"error": logger.Error,
	}
	for name, fn := range levels {
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)

	diceTbl := L.NewTable()
	L.SetField(diceTbl, "roll", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n < 1 {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(src.Intn(n) + 1))
		return 1
	}))
	L.SetField(engine, "dice", diceTbl)

	L.SetGlobal("engine", engine)
}
