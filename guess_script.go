package authnego

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// guessScripted is an additive scripted-guesser extension point: an
// optional Lua script, configured via
// Info.ScriptPath, may append extra candidate selections given the
// session's normalised hostname/service/username. A script that is absent,
// fails to load, or errors contributes nothing — it never aborts the rest
// of the pipeline, mirroring guesser-time swallow policy.
func guessScripted(sess *Session) {
	if sess.scriptPath == "" {
		return
	}

	L := lua.NewState()
	defer L.Close()

	if err := L.DoFile(sess.scriptPath); err != nil {
		sess.providers.Log.Warnf("scripted guesser %s failed to load: %v", sess.scriptPath, err)
		return
	}

	fn := L.GetGlobal("guess")
	if fn.Type() != lua.LTFunction {
		return
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(sess.hostname), lua.LString(sess.service), lua.LString(sess.username)); err != nil {
		sess.providers.Log.Warnf("scripted guesser %s errored: %v", sess.scriptPath, err)
		return
	}

	ret := L.Get(-1)
	L.Pop(1)

	table, ok := ret.(*lua.LTable)
	if !ok {
		return
	}

	table.ForEach(func(_, value lua.LValue) {
		entry, ok := value.(*lua.LTable)
		if !ok {
			return
		}
		client := luaString(entry, "client")
		server := luaString(entry, "server")
		mechName := luaString(entry, "mech")
		if client == "" || mechName == "" {
			return
		}

		mech := parseMechanismName(mechName)
		var flags AddFlag
		if lua.LVAsBool(entry.RawGetString("force_add")) {
			flags |= FlagForceAdd
		}

		serverType := NameServiceBasedName
		if strings.Contains(server, "@") {
			serverType = NameKRB5Principal
		}

		sess.selections.add(client, NameUsername, server, server != "", serverType, mech, flags)
	})
}

func luaString(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}
