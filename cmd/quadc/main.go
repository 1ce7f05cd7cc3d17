package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tebeka/atexit"

	"github.com/iley/quadc/internal/codegen"
	"github.com/iley/quadc/internal/codegen/common"
	"github.com/iley/quadc/internal/codegen/layout"
	"github.com/iley/quadc/internal/codegen/x86_64"
	"github.com/iley/quadc/internal/ir"
	"github.com/iley/quadc/internal/irfile"
)

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	atexit.Exit(1)
}

func main() {
	outputString := flag.String("o", "", "output file name")
	targetString := flag.String("t", "x86_64-linux", "target architecture, or ir/layout to dump the program")
	entry := flag.String("entry", x86_64.DefaultEntry, "entry point symbol")
	parallel := flag.Bool("j", false, "generate procedures in parallel")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = common.LevelTrace
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: quadc [options] <input file>")
		flag.PrintDefaults()
		atexit.Exit(1)
	}
	inputFileName := flag.Arg(0)

	program, err := irfile.LoadFile(inputFileName)
	if err != nil {
		fail("error loading program: %v", err)
	}

	var target codegen.Target
	if *targetString != "ir" && *targetString != "layout" {
		target, err = codegen.TargetFromName(*targetString)
		if err != nil {
			fail("error parsing target: %v", err)
		}
	}

	var output io.Writer
	if *outputString == "-" {
		output = os.Stdout
	} else {
		if *outputString == "" {
			*outputString = strings.TrimSuffix(inputFileName, filepath.Ext(inputFileName)) + ".s"
		}

		outputFile, err := os.Create(*outputString)
		if err != nil {
			fail("error creating output file: %v", err)
		}
		atexit.Register(func() {
			if err := outputFile.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
			}
		})
		output = outputFile
	}

	switch *targetString {
	case "ir":
		program.Print(output)
	case "layout":
		if err := writeLayout(output, program); err != nil {
			fail("error laying out program: %v", err)
		}
	default:
		features := x86_64.Features{Entry: *entry, Parallel: *parallel}
		if err := codegen.Generate(output, target, features, program); err != nil {
			if output != os.Stdout {
				atexit.Register(func() { os.Remove(*outputString) })
			}
			fail("error generating machine code: %v", err)
		}
	}

	atexit.Exit(0)
}

func writeLayout(out io.Writer, program *ir.Program) error {
	globals, err := layout.AssignGlobals(program)
	if err != nil {
		return err
	}
	var frames []*layout.Frame
	for _, proc := range program.Procedures {
		frame, err := layout.AssignFrame(proc)
		if err != nil {
			return fmt.Errorf("procedure %s: %w", proc.Name, err)
		}
		frames = append(frames, frame)
	}
	layout.WriteReport(out, globals, frames)
	return nil
}
