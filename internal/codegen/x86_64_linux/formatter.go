package x86_64_linux

import (
	"fmt"
	"io"

	"github.com/iley/quadc/internal/asm"
	"github.com/iley/quadc/internal/util"
)

func formatProgram(out io.Writer, p asm.Program) {
	formatDataSection(out, p)

	fmt.Fprintf(out, ".text\n")
	for _, fn := range p.Functions {
		formatFunction(out, fn)
	}
}

// formatDataSection writes strings, the entry export and globals, then
// realigns so that the code which follows starts on a word boundary.
func formatDataSection(out io.Writer, p asm.Program) {
	fmt.Fprintf(out, ".data\n")
	for _, sl := range p.StringLiterals {
		fmt.Fprintf(out, "%s: .asciz \"%s\"\n", sl.Label, util.EscapeString(sl.Text))
	}
	fmt.Fprintf(out, ".globl %s\n", p.Entry)
	for _, g := range p.GlobalVariables {
		if g.Size == 8 {
			fmt.Fprintf(out, "%s: .quad 0\n", g.Label)
		} else {
			fmt.Fprintf(out, "%s: .space %d\n", g.Label, g.Size)
		}
	}
	fmt.Fprintf(out, ".align 8\n")
}

func formatFunction(out io.Writer, fn asm.Function) {
	fmt.Fprintf(out, "%s:\n", fn.Name)
	for _, line := range fn.Lines {
		formatLine(out, line)
	}
}

func formatLine(out io.Writer, line asm.Line) {
	if line.Label != "" {
		fmt.Fprintf(out, "%s:", line.Label)
	} else if line.Op != "" {
		fmt.Fprintf(out, "  %s", line.Op)

		if line.Arity >= 1 {
			fmt.Fprintf(out, " %s", argToString(line.Arg1))
		}
		if line.Arity >= 2 {
			fmt.Fprintf(out, ", %s", argToString(line.Arg2))
		}
	}

	if line.Comment != "" {
		fmt.Fprintf(out, "  # %s", line.Comment)
	}

	fmt.Fprintf(out, "\n")
}

func argToString(arg asm.Arg) string {
	// RIP-relative addressing. Used both as a memory operand and by leaq.
	if arg.Label != "" && arg.Reg != "" {
		if arg.Offset != 0 {
			return fmt.Sprintf("%s+%d(%%%s)", arg.Label, arg.Offset, arg.Reg)
		}
		return fmt.Sprintf("%s(%%%s)", arg.Label, arg.Reg)
	}

	if arg.Reg != "" {
		if arg.Offset != 0 {
			// Same text for a memory operand and for leaq's address.
			return fmt.Sprintf("%d(%%%s)", arg.Offset, arg.Reg)
		} else if arg.Deref {
			return fmt.Sprintf("(%%%s)", arg.Reg)
		}
		return fmt.Sprintf("%%%s", arg.Reg)
	}

	if arg.Deref {
		panic(fmt.Errorf("invalid arg %#v. dereferencing only supported for registers", arg))
	}
	if arg.Label != "" {
		return arg.Label
	}
	if arg.Imm != nil {
		return fmt.Sprintf("$%d", *arg.Imm)
	}
	panic(fmt.Errorf("invalid arg %#v", arg))
}
