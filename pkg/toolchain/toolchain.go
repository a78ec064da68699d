// Package toolchain drives the external gcc invocation that turns
// generated assembly into a linked binary against the precompiled Lama
// runtime, adapted from xplshn-gbc's assembleAndLink (exec.Command, wrapped
// errors) to a single fixed gcc/runtime.o pair instead of a configurable
// cc/linker-args pipeline. The assembly is written straight to <base>.s;
// no temporary file is staged.
package toolchain

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// WriteAssembly writes asm to <base>.s, returning the path written.
func WriteAssembly(base, asm string) (string, error) {
	path := base + ".s"
	if err := os.WriteFile(path, []byte(asm), 0o644); err != nil {
		return "", fmt.Errorf("failed to write assembly to %s: %w", path, err)
	}
	return path, nil
}

// AssembleAndLink invokes `gcc -g -m32 -o base <runtimeDir>/runtime.o
// asmPath`, returning the exact exit status of the child process. A
// nonzero, non-exec-related failure (gcc missing, runtime.o missing) is
// reported as an error rather than an exit code.
func AssembleAndLink(base, asmPath, runtimeDir string) (exitCode int, err error) {
	runtimeObj := filepath.Join(runtimeDir, "runtime.o")
	if _, statErr := os.Stat(runtimeObj); statErr != nil {
		return 1, fmt.Errorf("runtime object not found at %s (set LAMA_RUNTIME): %w", runtimeObj, statErr)
	}

	cmd := exec.Command("gcc", "-g", "-m32", "-o", base, runtimeObj, asmPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	runErr := cmd.Run()
	if runErr == nil {
		return 0, nil
	}

	exitErr, ok := runErr.(*exec.ExitError)
	if !ok {
		return 1, fmt.Errorf("gcc command failed to start: %w", runErr)
	}
	if status, ok := exitErr.Sys().(unix.WaitStatus); ok {
		return status.ExitStatus(), nil
	}
	return exitErr.ExitCode(), nil
}
