package engine

import (
	"unsafe"
)

// CBinaries holds the buffers for one native binary-setting call. The
// holder must be kept alive (via runtime.KeepAlive) until the call
// returns.
type CBinaries struct {
	ptrs  []uintptr
	sizes []uint64
	bufs  [][]byte
}

// NewCBinaries copies bs into buffers addressable from the native side.
// Empty values map to a null pointer with size zero.
func NewCBinaries(bs [][]byte) *CBinaries {
	c := &CBinaries{
		ptrs:  make([]uintptr, len(bs)),
		sizes: make([]uint64, len(bs)),
		bufs:  make([][]byte, len(bs)),
	}
	for i, b := range bs {
		if len(b) == 0 {
			continue
		}
		buf := make([]byte, len(b))
		copy(buf, b)
		c.bufs[i] = buf
		c.ptrs[i] = uintptr(unsafe.Pointer(&buf[0]))
		c.sizes[i] = uint64(len(buf))
	}
	return c
}

// Pointers returns the buffer addresses, one per input value.
func (c *CBinaries) Pointers() []uintptr {
	return c.ptrs
}

// Sizes returns the buffer lengths, one per input value.
func (c *CBinaries) Sizes() []uint64 {
	return c.sizes
}

// GoBinaries copies native binary buffers returned by a get call. The
// native side owns the memory; the result is fully copied.
func GoBinaries(ptrs []uintptr, sizes []uint64) [][]byte {
	out := make([][]byte, len(ptrs))
	for i, p := range ptrs {
		if p == 0 || sizes[i] == 0 {
			out[i] = []byte{}
			continue
		}
		out[i] = append([]byte{}, unsafe.Slice((*byte)(unsafe.Pointer(p)), sizes[i])...)
	}
	return out
}
