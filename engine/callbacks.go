package engine

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	fmi "github.com/wippyai/fmi-runtime"
)

// fmi2Callbacks mirrors the C fmi2CallbackFunctions struct: five pointers,
// in declaration order. The native side keeps the address we pass to
// fmi2Instantiate for the whole instance lifetime, so the struct lives in
// package state and is shared by all instances.
type fmi2Callbacks struct {
	logger               uintptr
	allocateMemory       uintptr
	freeMemory           uintptr
	stepFinished         uintptr
	componentEnvironment uintptr
}

var (
	cb2     fmi2Callbacks
	cb2Once sync.Once

	log3     uintptr
	log3Once sync.Once
)

// callbacks2 returns the address of the shared FMI2 callback table,
// building it on first use.
func callbacks2() uintptr {
	cb2Once.Do(func() {
		cb2 = fmi2Callbacks{
			logger:         purego.NewCallback(fmi2LogTrampoline),
			allocateMemory: allocatorAddr(),
			freeMemory:     deallocatorAddr(),
		}
	})
	return uintptr(unsafe.Pointer(&cb2))
}

// logCallback3 returns the FMI3 fmi3LogMessageCallback trampoline address.
func logCallback3() uintptr {
	log3Once.Do(func() {
		log3 = purego.NewCallback(fmi3LogTrampoline)
	})
	return log3
}

// fmi2CallbackLogger(env, instanceName, status, category, message, ...)
// The native side declares the logger variadic; the fixed leading
// arguments are all we read.
func fmi2LogTrampoline(env, instanceName uintptr, status int32, category, message uintptr) uintptr {
	emitNativeLog(fmi.Status(status), goString(instanceName), goString(category), goString(message))
	return 0
}

// fmi3LogMessageCallback(env, status, category, message)
func fmi3LogTrampoline(env uintptr, status int32, category, message uintptr) uintptr {
	emitNativeLog(fmi.Status(status), "", goString(category), goString(message))
	return 0
}

func emitNativeLog(status fmi.Status, instance, category, message string) {
	fields := []zap.Field{
		zap.String("status", status.String()),
		zap.String("category", category),
	}
	if instance != "" {
		fields = append(fields, zap.String("instance", instance))
	}
	switch status {
	case fmi.StatusWarning, fmi.StatusDiscard:
		Logger().Warn(message, fields...)
	case fmi.StatusError, fmi.StatusFatal:
		Logger().Error(message, fields...)
	default:
		Logger().Debug(message, fields...)
	}
}

// goString copies a NUL-terminated C string.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var b []byte
	for {
		c := *(*byte)(unsafe.Pointer(ptr))
		if c == 0 {
			break
		}
		b = append(b, c)
		ptr++
	}
	return string(b)
}
