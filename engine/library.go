package engine

import (
	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/wippyai/fmi-runtime/errors"
)

// Library is one loaded shared object. The handle and resolved symbol
// addresses are immutable after Open and may be read concurrently.
type Library struct {
	path   string
	handle uintptr
}

// Open loads the shared library at path.
func Open(path string) (*Library, error) {
	handle, err := dlopen(path)
	if err != nil {
		return nil, errors.Load("open shared library "+path, err)
	}
	Logger().Debug("loaded shared library",
		zap.String("path", path))
	return &Library{path: path, handle: handle}, nil
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Symbol resolves an exported symbol address, reporting absence instead of
// failing. Optional FMI entry points are probed through this.
func (l *Library) Symbol(name string) (uintptr, bool) {
	addr, err := dlsym(l.handle, name)
	if err != nil || addr == 0 {
		return 0, false
	}
	return addr, true
}

// Close unloads the library. All instances created from it must have been
// freed first; the runtime layer enforces that precondition.
func (l *Library) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := dlclose(l.handle)
	l.handle = 0
	if err != nil {
		return errors.Load("close shared library "+l.path, err)
	}
	return nil
}

// register resolves name and binds fptr to it, leaving fptr nil when the
// symbol is absent. fptr must be a pointer to a function variable with a
// C-compatible signature.
func register(l *Library, fptr any, name string) bool {
	addr, ok := l.Symbol(name)
	if !ok {
		return false
	}
	purego.RegisterFunc(fptr, addr)
	return true
}
