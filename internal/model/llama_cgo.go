//go:build llama

package model

// cgo link directives for the in-process llama.cpp model.
// The rpath of $ORIGIN lets the loader find libllama.so next to the binary.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"
