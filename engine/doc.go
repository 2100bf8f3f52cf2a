// Package engine is the FFI boundary of fmi-runtime.
//
// It loads the FMU's shared library, resolves the standardized C entry
// points, and exposes them as per-version function tables (FMI2, FMI3)
// whose fields are plain Go functions. Each field is one capability: a nil
// field means the loaded module does not export that entry point, and
// callers treat absence as a first-class "unsupported" result rather than
// risking a crash through a dangling pointer.
//
// Everything above this package works with the function tables only; no
// other path to the native handle exists. Raw pointers, C strings and the
// callback trampolines the native side needs are confined to this package.
package engine
