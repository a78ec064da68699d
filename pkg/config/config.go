// Package config holds the compiler-wide switches threaded through the
// pipeline: register budget, debug dump flags, and the runtime search path.
package config

import (
	"os"
	"path/filepath"
)

// DefaultNRegs is the number of hard registers usable for the symbolic
// operand stack before pkg/codegen starts spilling to S(_) slots.
const DefaultNRegs = 3

// DefaultRuntimeDir is used when LAMA_RUNTIME is unset.
const DefaultRuntimeDir = "../runtime"

type Config struct {
	NRegs int

	// DumpSM prints the lowered SM program (textual form, spec §6) before
	// codegen runs.
	DumpSM bool
	// DumpEnv pretty-prints the codegen environment's final state after
	// x86 lowering completes, for debugging join/spill behavior.
	DumpEnv bool

	// StopAfterAssembly corresponds to -S: emit <B>.s and stop, skipping
	// the toolchain invocation.
	StopAfterAssembly bool

	OutputPath string
	RuntimeDir string
}

// NewConfig returns a Config with the compiler's defaults: 3 usable
// registers, no dumps, and a runtime directory resolved from LAMA_RUNTIME.
func NewConfig() *Config {
	return &Config{
		NRegs:      DefaultNRegs,
		RuntimeDir: ResolveRuntimeDir(),
	}
}

// ResolveRuntimeDir returns $LAMA_RUNTIME, or DefaultRuntimeDir relative to
// the current directory when the variable is unset or empty.
func ResolveRuntimeDir() string {
	if dir := os.Getenv("LAMA_RUNTIME"); dir != "" {
		return dir
	}
	return DefaultRuntimeDir
}

// RuntimeObject returns the path to the precompiled runtime object that
// pkg/toolchain links against.
func (c *Config) RuntimeObject() string {
	return filepath.Join(c.RuntimeDir, "runtime.o")
}
