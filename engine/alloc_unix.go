//go:build darwin || freebsd || linux

package engine

import (
	"github.com/ebitengine/purego"
)

// The FMI2 callback table wants C-ABI calloc/free; the process-global
// libc symbols satisfy the signatures exactly.

func allocatorAddr() uintptr {
	addr, err := purego.Dlsym(purego.RTLD_DEFAULT, "calloc")
	if err != nil {
		return 0
	}
	return addr
}

func deallocatorAddr() uintptr {
	addr, err := purego.Dlsym(purego.RTLD_DEFAULT, "free")
	if err != nil {
		return 0
	}
	return addr
}
