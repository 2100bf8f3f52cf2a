package engine

import (
	"unsafe"
)

// CStrings holds NUL-terminated copies of Go strings for the duration of
// one native string-setting call. The holder must be kept alive (via
// runtime.KeepAlive) until the call returns.
type CStrings struct {
	ptrs []uintptr
	bufs [][]byte
}

// NewCStrings copies ss into NUL-terminated buffers.
func NewCStrings(ss []string) *CStrings {
	c := &CStrings{
		ptrs: make([]uintptr, len(ss)),
		bufs: make([][]byte, len(ss)),
	}
	for i, s := range ss {
		buf := make([]byte, len(s)+1)
		copy(buf, s)
		c.bufs[i] = buf
		c.ptrs[i] = uintptr(unsafe.Pointer(&buf[0]))
	}
	return c
}

// Pointers returns the C string addresses, one per input string.
func (c *CStrings) Pointers() []uintptr {
	return c.ptrs
}

// GoStrings copies an array of NUL-terminated C string pointers returned
// by a native get call. The native side owns the memory; the result is
// fully copied.
func GoStrings(ptrs []uintptr) []string {
	out := make([]string, len(ptrs))
	for i, p := range ptrs {
		out[i] = goString(p)
	}
	return out
}
