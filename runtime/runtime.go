package runtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/fmi-runtime/errors"
)

// Runtime owns the set of loaded FMU modules.
type Runtime struct {
	mu      sync.Mutex
	modules []*Module
	closed  bool
}

// New creates an empty runtime.
func New() *Runtime {
	return &Runtime{}
}

// Load opens an .fmu container: the archive is extracted to a scratch
// directory, the manifest parsed and the platform binary loaded. The
// scratch directory is removed when the module is closed.
func (r *Runtime) Load(path string) (*Module, error) {
	dir, err := extractContainer(path)
	if err != nil {
		return nil, err
	}
	mod, err := r.loadDir(dir, true)
	if err != nil {
		removeExtracted(dir)
		return nil, err
	}
	return mod, nil
}

// LoadExtracted loads an already-unpacked FMU directory. The directory is
// left in place on Close.
func (r *Runtime) LoadExtracted(dir string) (*Module, error) {
	return r.loadDir(dir, false)
}

func (r *Runtime) loadDir(dir string, owned bool) (*Module, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.InvalidInput(errors.PhaseLoad, "runtime closed")
	}
	r.mu.Unlock()

	mod, err := openModule(dir, owned)
	if err != nil {
		return nil, err
	}
	mod.runtime = r

	r.mu.Lock()
	r.modules = append(r.modules, mod)
	r.mu.Unlock()

	Logger().Info("loaded FMU",
		zap.String("model", mod.model.Name),
		zap.String("fmiVersion", mod.model.FMIVersion),
		zap.String("dir", dir))
	return mod, nil
}

// Close unloads every module still loaded. Instances must have been freed
// first; closing a module with live instances is a programming error and
// panics.
func (r *Runtime) Close() error {
	r.mu.Lock()
	mods := r.modules
	r.modules = nil
	r.closed = true
	r.mu.Unlock()

	var firstErr error
	for _, m := range mods {
		if err := m.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Runtime) forget(mod *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.modules {
		if m == mod {
			r.modules = append(r.modules[:i], r.modules[i+1:]...)
			return
		}
	}
}
