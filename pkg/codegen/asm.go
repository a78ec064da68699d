package codegen

import (
	"fmt"
	"strings"

	"github.com/lama-toolchain/lamac/pkg/loc"
	"github.com/lama-toolchain/lamac/pkg/sm"
)

// Assemble lowers prog and stitches the result into a complete assembly
// file: a .data section declaring every discovered global as a
// zero-initialized word, followed by the .text section, per spec §4.4.
func Assemble(prog sm.Program, nRegs int) string {
	body, env := Lower(prog, nRegs)

	var sb strings.Builder
	sb.WriteString("\t.global main\n")
	sb.WriteString("\t.data\n")
	for _, g := range env.GetGlobals() {
		fmt.Fprintf(&sb, "%s:\t.int\t0\n", loc.MangleGlobal(g))
	}
	sb.WriteString("\t.text\n")
	for _, line := range body {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
