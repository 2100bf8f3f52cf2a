package runtime

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/engine"
	fmierrors "github.com/wippyai/fmi-runtime/errors"
	"github.com/wippyai/fmi-runtime/registry"
)

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.fmu")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry %q: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %q: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestExtractContainer(t *testing.T) {
	path := writeZip(t, map[string]string{
		"modelDescription.xml":       bouncingBallXML,
		"binaries/x86_64-linux/a.so": "not a real library",
		"resources/data.txt":         "payload",
	})

	dir, err := extractContainer(path)
	if err != nil {
		t.Fatalf("extractContainer error: %v", err)
	}
	defer removeExtracted(dir)

	for _, rel := range []string{
		"modelDescription.xml",
		filepath.Join("binaries", "x86_64-linux", "a.so"),
		filepath.Join("resources", "data.txt"),
	} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
}

func TestExtractContainerRejectsTraversal(t *testing.T) {
	path := writeZip(t, map[string]string{
		"../outside.txt": "escape attempt",
	})

	dir, err := extractContainer(path)
	if dir != "" {
		defer removeExtracted(dir)
	}
	if err == nil {
		t.Fatal("expected error for path traversal entry")
	}
}

func TestBinaryPathProbesPlatformDirs(t *testing.T) {
	model := parseModel(t, bouncingBallXML)
	dir := t.TempDir()

	if _, err := binaryPath(dir, model); err == nil {
		t.Fatal("expected error with no binaries present")
	}

	sub := filepath.Join(dir, "binaries", platformDirs()[0])
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	lib := filepath.Join(sub, "BouncingBall"+sharedLibExt())
	if err := os.WriteFile(lib, []byte{0}, 0o644); err != nil {
		t.Fatalf("write lib: %v", err)
	}

	got, err := binaryPath(dir, model)
	if err != nil {
		t.Fatalf("binaryPath error: %v", err)
	}
	if got != lib {
		t.Errorf("binaryPath = %q, want %q", got, lib)
	}
}

func TestInstantiateFailsOnClosedModule(t *testing.T) {
	freed := 0
	mod := &Module{
		model: parseModel(t, bouncingBallXML),
		v2: &engine.FMI2{
			Instantiate: func(name string, fmuType int32, guid, loc string, cb uintptr, vis, log int32) uintptr {
				return 9
			},
			FreeInstance: func(c uintptr) { freed++ },
		},
		instances: registry.NewTable(),
	}
	if err := mod.instances.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	_, err := mod.Instantiate("ball", fmi.CoSimulation)
	if !isKind(err, fmierrors.KindInstantiation) {
		t.Fatalf("Instantiate on closed module = %v, want instantiation error", err)
	}
	if freed != 1 {
		t.Errorf("freed = %d, want the native instance released", freed)
	}
}

func TestModuleClosePanicsWithLiveInstances(t *testing.T) {
	mod := &Module{
		model:     parseModel(t, bouncingBallXML),
		v2:        &engine.FMI2{},
		instances: registry.NewTable(),
	}
	inst := &Instance{
		module:  mod,
		name:    "ball",
		kind:    fmi.CoSimulation,
		version: fmi.FMI2,
		v2:      mod.v2,
		state:   StateInstantiated,
		handle:  1,
	}
	inst.regHandle = mod.instances.Insert(inst)

	defer func() {
		if recover() == nil {
			t.Error("Close with a live instance should panic")
		}
	}()
	mod.close()
}
