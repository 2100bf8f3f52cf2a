package runtime

import (
	"path/filepath"

	"go.uber.org/zap"

	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/engine"
	"github.com/wippyai/fmi-runtime/errors"
	"github.com/wippyai/fmi-runtime/registry"
	"github.com/wippyai/fmi-runtime/schema"
)

// Module is one loaded FMU: its parsed manifest, the shared library and
// the set of live instances created from it. The native handle and symbol
// table are immutable after load and may be shared by concurrent readers;
// instance bookkeeping is guarded by the registry.
type Module struct {
	runtime   *Runtime
	model     *schema.Model
	lib       *engine.Library
	v2        *engine.FMI2
	v3        *engine.FMI3
	instances *registry.Table

	dir      string
	ownsDir  bool
	resource string // resource location handed to instantiate calls
}

func openModule(dir string, ownsDir bool) (*Module, error) {
	model, err := schema.ParseFile(filepath.Join(dir, "modelDescription.xml"))
	if err != nil {
		return nil, err
	}

	binPath, err := binaryPath(dir, model)
	if err != nil {
		return nil, err
	}
	lib, err := engine.Open(binPath)
	if err != nil {
		return nil, err
	}

	m := &Module{
		model:     model,
		lib:       lib,
		instances: registry.NewTable(),
		dir:       dir,
		ownsDir:   ownsDir,
	}

	switch model.SpecVersion {
	case fmi.FMI2:
		// FMI2 wants the resources directory as a URI.
		m.resource = "file://" + filepath.ToSlash(filepath.Join(dir, "resources"))
		m.v2, err = engine.BindFMI2(lib)
	case fmi.FMI3:
		m.resource = filepath.Join(dir, "resources")
		m.v3, err = engine.BindFMI3(lib)
	}
	if err != nil {
		lib.Close()
		return nil, err
	}
	return m, nil
}

// Model returns the parsed manifest.
func (m *Module) Model() *schema.Model {
	return m.model
}

// Version returns the FMI major version of the loaded FMU.
func (m *Module) Version() fmi.SpecVersion {
	return m.model.SpecVersion
}

// Resolve converts a variable selector (name, name slice, numeric
// reference, reference slice, or nil) into a value reference set.
func (m *Module) Resolve(selector any) ([]fmi.ValueReference, error) {
	return m.model.Resolve(selector)
}

// ResolveOne looks up a single variable name.
func (m *Module) ResolveOne(name string) (fmi.ValueReference, error) {
	return m.model.ResolveOne(name)
}

// LiveInstances returns the number of undisposed instances.
func (m *Module) LiveInstances() int {
	return m.instances.Len()
}

// Instantiate creates a native instance of kind. The manifest must
// declare the matching interface section.
func (m *Module) Instantiate(name string, kind fmi.Kind, opts ...InstanceOption) (*Instance, error) {
	if m.model.Capabilities(kind) == nil {
		return nil, errors.Capability(name, "instantiate", kind.String())
	}

	cfg := instanceConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	inst := &Instance{
		module:  m,
		name:    name,
		kind:    kind,
		version: m.model.SpecVersion,
		v2:      m.v2,
		v3:      m.v3,
		cfg:     cfg,
		state:   StateInstantiated,
	}
	if err := inst.instantiateNative(); err != nil {
		return nil, err
	}

	inst.regHandle = m.instances.Insert(inst)
	if inst.regHandle == 0 {
		// Table closed between the capability check and the insert.
		inst.freeNative()
		return nil, errors.New(errors.PhaseCall, errors.KindInstantiation).
			Instance(name).Detail("module closed").Build()
	}
	Logger().Debug("instantiated FMU",
		zap.String("instance", name),
		zap.String("kind", kind.String()))
	return inst, nil
}

// Close unloads the shared library and removes the scratch directory.
// All instances must have been freed first: closing a module with live
// instances would unload native code still referenced by them, so it is
// treated as a programming error and panics.
func (m *Module) Close() error {
	err := m.close()
	if m.runtime != nil {
		m.runtime.forget(m)
	}
	return err
}

func (m *Module) close() error {
	if n := m.instances.Len(); n > 0 {
		panic(errors.LiveInstances(n).Error())
	}
	if err := m.instances.Close(); err != nil {
		return err
	}

	err := m.lib.Close()
	if m.ownsDir {
		removeExtracted(m.dir)
	}
	Logger().Info("unloaded FMU", zap.String("model", m.model.Name))
	return err
}
