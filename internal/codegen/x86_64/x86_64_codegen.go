package x86_64

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/iley/quadc/internal/asm"
	"github.com/iley/quadc/internal/codegen/common"
	"github.com/iley/quadc/internal/codegen/layout"
	"github.com/iley/quadc/internal/ir"
)

const DefaultEntry = "main"

type Features struct {
	// Symbol exported as the program entry point. DefaultEntry if empty.
	Entry string
	// Translate procedures concurrently once the globals are laid out.
	Parallel bool
}

// CodegenContext is the state needed to translate one procedure. It is
// read-only once built, so procedures can be translated in parallel.
type CodegenContext struct {
	globals *layout.Globals
	frame   *layout.Frame
	locator layout.Locator
}

func newCodegenContext(globals *layout.Globals, frame *layout.Frame) *CodegenContext {
	return &CodegenContext{
		globals: globals,
		frame:   frame,
		locator: layout.Locator{Globals: globals, Frame: frame},
	}
}

// Generate lays out the program and translates it. No part of the result is
// usable if an error is returned.
func Generate(program *ir.Program, features Features) (asm.Program, error) {
	asmProgram := asm.Program{Entry: features.Entry}
	if asmProgram.Entry == "" {
		asmProgram.Entry = DefaultEntry
	}

	globals, err := layout.AssignGlobals(program)
	if err != nil {
		return asm.Program{}, err
	}

	for _, s := range globals.Strings {
		asmProgram.StringLiterals = append(asmProgram.StringLiterals, asm.StringLiteral{Label: s.Label, Text: s.Text})
	}
	for _, g := range globals.Vars {
		asmProgram.GlobalVariables = append(asmProgram.GlobalVariables, asm.GlobalVariable{Label: g.Label, Size: g.Opd.Width()})
	}

	if features.Parallel {
		asmProgram.Functions, err = generateParallel(globals, program.Procedures)
	} else {
		asmProgram.Functions, err = generateSequential(globals, program.Procedures)
	}
	if err != nil {
		return asm.Program{}, err
	}
	return asmProgram, nil
}

func generateSequential(globals *layout.Globals, procs []*ir.Procedure) ([]asm.Function, error) {
	var result []asm.Function
	for _, proc := range procs {
		fn, err := generateProcedure(globals, proc)
		if err != nil {
			return nil, fmt.Errorf("error when generating code for procedure %s: %w", proc.Name, err)
		}
		result = append(result, fn)
	}
	return result, nil
}

// generateParallel translates every procedure in its own goroutine. Results
// keep the declaration order.
func generateParallel(globals *layout.Globals, procs []*ir.Procedure) ([]asm.Function, error) {
	result := make([]asm.Function, len(procs))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, proc := range procs {
		i, proc := i, proc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn, err := generateProcedure(globals, proc)
			if err != nil {
				return fmt.Errorf("error when generating code for procedure %s: %w", proc.Name, err)
			}
			result[i] = fn
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func generateProcedure(globals *layout.Globals, proc *ir.Procedure) (asm.Function, error) {
	result := asm.Function{
		Name: proc.Name,
	}

	frame, err := layout.AssignFrame(proc)
	if err != nil {
		return result, err
	}
	cc := newCodegenContext(globals, frame)
	slog.Debug("generating procedure", "name", proc.Name, "frame", frame.Size)

	result.Lines = append(result.Lines,
		asm.Comment(fmt.Sprintf("frame size: %d bytes", frame.Size)))

	emit := func(i int, q ir.Quad) error {
		common.Trace("translating quad", "procedure", proc.Name, "index", i, "quad", q.String())
		result.Lines = append(result.Lines, generateLabels(q)...)
		result.Lines = append(result.Lines, asm.Comment(q.String()))
		lines, err := generateQuad(cc, q)
		if err != nil {
			return fmt.Errorf("quad %d (%s): %w", i, q, err)
		}
		result.Lines = append(result.Lines, lines...)
		return nil
	}

	if err := emit(0, proc.Enter); err != nil {
		return result, err
	}
	result.Lines = append(result.Lines, asm.Comment(fmt.Sprintf("Fn body %s", proc.Name)))
	for i, q := range proc.Body {
		if err := emit(i+1, q); err != nil {
			return result, err
		}
	}
	result.Lines = append(result.Lines, asm.Comment(fmt.Sprintf("Fn epilogue %s", proc.Name)))
	if err := emit(len(proc.Body)+1, proc.Leave); err != nil {
		return result, err
	}

	return result, nil
}
