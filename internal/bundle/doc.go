// Package bundle implements the two file primitives of the vendor build:
// ordered concatenation of sources into a single bundle, and pass-through
// copying of assets into an output directory.
//
// Both primitives are fail-fast: every source is read before the first
// byte is written, and every output is replaced atomically via
// github.com/moby/sys/atomicwriter. A failing task therefore never
// produces or overwrites any of its outputs.
//
// Each written file is fingerprinted with BLAKE3 (github.com/zeebo/blake3)
// so build reports can show exactly what was produced.
package bundle
