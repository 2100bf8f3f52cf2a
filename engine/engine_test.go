package engine

import (
	"testing"
	"unsafe"
)

func TestGoString(t *testing.T) {
	buf := []byte("gravity\x00trailing")
	got := goString(uintptr(unsafe.Pointer(&buf[0])))
	if got != "gravity" {
		t.Errorf("goString = %q", got)
	}

	if goString(0) != "" {
		t.Error("goString(0) should be empty")
	}

	empty := []byte{0}
	if goString(uintptr(unsafe.Pointer(&empty[0]))) != "" {
		t.Error("empty C string should decode to empty Go string")
	}
}

func TestCStringsRoundTrip(t *testing.T) {
	in := []string{"h", "der(v)", ""}
	cs := NewCStrings(in)

	ptrs := cs.Pointers()
	if len(ptrs) != len(in) {
		t.Fatalf("got %d pointers", len(ptrs))
	}

	out := GoStrings(ptrs)
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("round trip [%d] = %q, want %q", i, out[i], in[i])
		}
	}
}

// The event info struct is handed to the native side by pointer, so its
// layout must match the C declaration: five 4-byte flags, 4 bytes of
// padding, one 8-byte double.
func TestFMI2EventInfoLayout(t *testing.T) {
	var info FMI2EventInfo

	if off := unsafe.Offsetof(info.NextEventTime); off != 24 {
		t.Errorf("NextEventTime offset = %d, want 24", off)
	}
	if size := unsafe.Sizeof(info); size != 32 {
		t.Errorf("sizeof = %d, want 32", size)
	}
}

func TestFMI2BooleanConversion(t *testing.T) {
	if cbool2(true) != 1 || cbool2(false) != 0 {
		t.Error("fmi2Boolean conversion wrong")
	}
}
