package common

import (
	"io"

	"github.com/iley/quadc/internal/asm"
	"github.com/iley/quadc/internal/ir"
)

//go:generate mockgen -write_package_comment=false -package=codegen -destination=../mock_code_generator_test.go github.com/iley/quadc/internal/codegen/common CodeGenerator
type CodeGenerator interface {
	Generate(*ir.Program) (asm.Program, error)
	Format(io.Writer, asm.Program)
}
