package x86_64_linux

import (
	"io"

	"github.com/iley/quadc/internal/asm"
	"github.com/iley/quadc/internal/codegen/x86_64"
	"github.com/iley/quadc/internal/ir"
)

type CodeGenerator struct {
	Features x86_64.Features
}

func (cg *CodeGenerator) Generate(program *ir.Program) (asm.Program, error) {
	return x86_64.Generate(program, cg.Features)
}

func (cg *CodeGenerator) Format(out io.Writer, p asm.Program) {
	formatProgram(out, p)
}
