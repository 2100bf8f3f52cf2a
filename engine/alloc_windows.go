//go:build windows

package engine

import (
	"syscall"
)

var msvcrt = syscall.NewLazyDLL("msvcrt.dll")

func allocatorAddr() uintptr {
	proc := msvcrt.NewProc("calloc")
	if proc.Find() != nil {
		return 0
	}
	return proc.Addr()
}

func deallocatorAddr() uintptr {
	proc := msvcrt.NewProc("free")
	if proc.Find() != nil {
		return 0
	}
	return proc.Addr()
}
