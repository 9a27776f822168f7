package scripting

import lua "github.com/yuin/gopher-lua"

// Queries is what a predicate may ask about the character it is evaluated
// for.
type Queries interface {
	// HasResource reports whether the character has acquired the resource
	// named by ref, in "name (modifier) [type]" form.
	HasResource(ref string) (bool, error)
	// ModifierTotal returns the total of the named modifier.
	ModifierTotal(name string) (int, error)
	// ProficiencyRank returns the rank in target, 0 (untrained) to 4
	// (legendary).
	ProficiencyRank(target string) (int, error)
}

// RegisterModules defines the sheet global in L, backed by q:
//
//	sheet.has_resource(ref) -> boolean
//	sheet.modifier(name)    -> number
//	sheet.proficiency(name) -> number
//
// Query errors are raised as Lua errors.
//
// Precondition: L must be from NewSandboxedState; q must be non-nil.
// Postcondition: sheet global is defined in L.
func RegisterModules(L *lua.LState, q Queries) {
	sheet := L.NewTable()
	L.SetField(sheet, "has_resource", L.NewFunction(func(L *lua.LState) int {
		ok, err := q.HasResource(L.CheckString(1))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(lua.LBool(ok))
		return 1
	}))
	L.SetField(sheet, "modifier", L.NewFunction(func(L *lua.LState) int {
		n, err := q.ModifierTotal(L.CheckString(1))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(lua.LNumber(n))
		return 1
	}))
	L.SetField(sheet, "proficiency", L.NewFunction(func(L *lua.LState) int {
		n, err := q.ProficiencyRank(L.CheckString(1))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(lua.LNumber(n))
		return 1
	}))
	L.SetGlobal("sheet", sheet)
}
