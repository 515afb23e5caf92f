//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// This core uses unsafe.Pointer uint32 stores for memory bus access,
// which assume little-endian byte order.
var _ = "this core requires a little-endian architecture" + 1
