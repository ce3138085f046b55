// Package gl is the guest side of the host's "env" imports, for Go programs
// built with GOOS=wasip1 GOARCH=wasm -buildmode=c-shared.
//
// Objects are plain uint32 handles issued by the host, starting at 1; 0 is
// the null object. Strings and matrices are passed as offsets into linear
// memory. The host may memoize a decode by offset, so a buffer reused for a
// different string can read back the first one; keep one live allocation per
// distinct string.
//
// The host calls one exported entry point, "test" unless the payload
// manifest names another, after _initialize:
//
//	//go:wasmexport test
//	func test() int32 { ... }
package gl
