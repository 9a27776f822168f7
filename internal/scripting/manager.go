package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

// Manager compiles and evaluates Lua predicates. Every evaluation runs in a
// fresh sandboxed state, so no Lua state is shared between characters.
//
// Manager is safe for concurrent EvalPredicate after all LoadLibrary calls
// complete.
type Manager struct {
	mu        sync.RWMutex
	library   []*lua.FunctionProto
	compiled  map[string]*lua.FunctionProto
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil; instLimit >= 0, 0 uses
// DefaultInstructionLimit.
// Postcondition: Returns a non-nil Manager with an empty library.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	return &Manager{
		compiled:  make(map[string]*lua.FunctionProto),
		instLimit: instLimit,
		logger:    logger,
	}
}

// LoadLibrary compiles every *.lua file in dir in lexicographic order. The
// library chunks run before each predicate, so they can define helper
// functions predicates call.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns an error on the first file that fails to compile.
func (m *Manager) LoadLibrary(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	protos := make([]*lua.FunctionProto, 0, len(luaFiles))
	for _, path := range luaFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("scripting: reading %q: %w", path, err)
		}
		proto, err := compile(path, string(src))
		if err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
		protos = append(protos, proto)
	}

	m.mu.Lock()
	m.library = append(m.library, protos...)
	m.mu.Unlock()
	m.logger.Info("scripting: library loaded",
		zap.String("dir", dir),
		zap.Int("files", len(protos)),
	)
	return nil
}

func compile(name, src string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, err
	}
	return lua.Compile(chunk, name)
}

// predicate returns the compiled form of src. An expression such as
// `sheet.modifier("STR") >= 14` is compiled as if prefixed by return; any
// other source must be a chunk that returns its result.
func (m *Manager) predicate(src string) (*lua.FunctionProto, error) {
	m.mu.RLock()
	proto, ok := m.compiled[src]
	m.mu.RUnlock()
	if ok {
		return proto, nil
	}

	proto, err := compile("predicate", "return "+src)
	if err != nil {
		proto, err = compile("predicate", src)
		if err != nil {
			return nil, fmt.Errorf("scripting: compiling predicate: %w", err)
		}
	}

	m.mu.Lock()
	m.compiled[src] = proto
	m.mu.Unlock()
	return proto, nil
}

// EvalPredicate runs src against q and reports whether it returned a truthy
// value.
//
// Precondition: q must be non-nil.
// Postcondition: compile failures, Lua runtime errors, query errors and
// exhausting the instruction limit are returned as errors.
func (m *Manager) EvalPredicate(src string, q Queries) (bool, error) {
	proto, err := m.predicate(src)
	if err != nil {
		return false, err
	}

	L, cancel := NewSandboxedState(m.instLimit)
	defer L.Close()
	defer cancel()
	RegisterModules(L, q)

	m.mu.RLock()
	library := m.library
	m.mu.RUnlock()
	for _, lib := range library {
		L.Push(L.NewFunctionFromProto(lib))
		if err := L.PCall(0, 0, nil); err != nil {
			return false, fmt.Errorf("scripting: running library %q: %w", lib.SourceName, err)
		}
	}

	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, 1, nil); err != nil {
		return false, fmt.Errorf("scripting: evaluating predicate: %w", err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}
