package codegen

import (
	"fmt"
	"io"

	"github.com/iley/quadc/internal/codegen/common"
	"github.com/iley/quadc/internal/codegen/x86_64"
	"github.com/iley/quadc/internal/codegen/x86_64_linux"
	"github.com/iley/quadc/internal/ir"
)

type Target int

const (
	TargetX86_64Linux Target = iota
)

func TargetFromName(name string) (Target, error) {
	switch name {
	case "x86_64-linux":
		return TargetX86_64Linux, nil
	}
	return 0, fmt.Errorf("unknown target: %s", name)
}

func NewCodeGenerator(target Target, features x86_64.Features) (common.CodeGenerator, error) {
	switch target {
	case TargetX86_64Linux:
		return &x86_64_linux.CodeGenerator{Features: features}, nil
	}
	return nil, fmt.Errorf("unknown target: %v", target)
}

func Generate(out io.Writer, target Target, features x86_64.Features, program *ir.Program) error {
	cg, err := NewCodeGenerator(target, features)
	if err != nil {
		return err
	}
	return GenerateWith(out, cg, program)
}

// GenerateWith runs cg over program. Nothing is written to out unless the
// whole program was generated.
func GenerateWith(out io.Writer, cg common.CodeGenerator, program *ir.Program) error {
	asmProgram, err := cg.Generate(program)
	if err != nil {
		return err
	}
	cg.Format(out, asmProgram)
	return nil
}
