package runtime

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/wippyai/fmi-runtime/errors"
	"github.com/wippyai/fmi-runtime/schema"
)

// extractContainer unpacks an .fmu archive into a scratch directory.
func extractContainer(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", errors.Load("open container "+path, err)
	}
	defer zr.Close()

	dir, err := os.MkdirTemp("", "fmu-*")
	if err != nil {
		return "", errors.Load("create scratch directory", err)
	}

	for _, f := range zr.File {
		if err := extractFile(dir, f); err != nil {
			removeExtracted(dir)
			return "", err
		}
	}
	return dir, nil
}

func extractFile(dir string, f *zip.File) error {
	rel := filepath.Clean(f.Name)
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) || filepath.IsAbs(rel) {
		return errors.InvalidInput(errors.PhaseLoad, "archive entry escapes container: "+f.Name)
	}
	dst := filepath.Join(dir, rel)

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dst, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Load("create directory", err)
	}

	src, err := f.Open()
	if err != nil {
		return errors.Load("read archive entry "+f.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return errors.Load("write "+dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return errors.Load("extract "+f.Name, err)
	}
	return nil
}

func removeExtracted(dir string) {
	if dir != "" {
		os.RemoveAll(dir)
	}
}

// binaryPath locates the platform shared library inside an extracted FMU.
// FMI2 uses coarse platform names (linux64, darwin64, win64); FMI3 uses
// arch-os tuples (x86_64-linux, aarch64-darwin). Both layouts are probed
// so repackaged FMUs with mixed layouts still load.
func binaryPath(dir string, model *schema.Model) (string, error) {
	ident := modelIdentifier(model)
	if ident == "" {
		return "", errors.InvalidInput(errors.PhaseLoad, "manifest declares no modelIdentifier")
	}

	for _, platform := range platformDirs() {
		p := filepath.Join(dir, "binaries", platform, ident+sharedLibExt())
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.NotFound(errors.PhaseLoad, "platform binary", ident+sharedLibExt())
}

func modelIdentifier(model *schema.Model) string {
	for _, iface := range []*schema.Interface{model.CoSimulation, model.ModelExchange, model.ScheduledExecution} {
		if iface != nil && iface.ModelIdentifier != "" {
			return iface.ModelIdentifier
		}
	}
	return ""
}

func platformDirs() []string {
	arch := map[string]string{
		"amd64": "x86_64",
		"arm64": "aarch64",
		"386":   "x86",
	}[runtime.GOARCH]

	switch runtime.GOOS {
	case "linux":
		return []string{arch + "-linux", "linux64", "linux32"}
	case "darwin":
		return []string{arch + "-darwin", "darwin64"}
	case "windows":
		return []string{arch + "-windows", "win64", "win32"}
	default:
		return []string{arch + "-" + runtime.GOOS}
	}
}

func sharedLibExt() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}
