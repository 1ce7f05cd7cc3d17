package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iley/quadc/internal/codegen"
	"github.com/iley/quadc/internal/codegen/x86_64"
	"github.com/iley/quadc/internal/irfile"
)

var (
	outputFile string
	entry      string
	parallel   bool
)

// CompilationConfig holds platform-specific compilation settings
type CompilationConfig struct {
	Assembler      string
	AssemblerFlags []string
	Linker         string
	LinkerFlags    []string
}

var rootCmd = &cobra.Command{
	Use:   "quad",
	Short: "Quad IR build system",
	Long:  "Builds executables from quad IR programs.",
}

var buildCmd = &cobra.Command{
	Use:   "build <file.yaml>",
	Short: "Build a quad IR program",
	Long:  "Compile a quad IR program to assembly, assemble it and link it against the runtime library.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(args[0]); err != nil {
			return fmt.Errorf("path %s does not exist", args[0])
		}

		config, err := getCompilationConfig()
		if err != nil {
			return fmt.Errorf("failed to get compilation config: %w", err)
		}

		keepIntermediateFiles, _ := cmd.Flags().GetBool("keep")
		features := x86_64.Features{Entry: entry, Parallel: parallel}

		if err := buildProgram(config, args[0], keepIntermediateFiles, features, outputFile); err != nil {
			cmd.SilenceUsage = true
			return err
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolP("keep", "k", false, "Keep intermediate files (.s, .o)")
	buildCmd.Flags().StringVarP(&outputFile, "o", "o", "", "output file name")
	buildCmd.Flags().StringVar(&entry, "entry", x86_64.DefaultEntry, "entry point symbol")
	buildCmd.Flags().BoolVarP(&parallel, "parallel", "j", false, "generate procedures in parallel")
	rootCmd.AddCommand(buildCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildProgram compiles an IR file to an executable
func buildProgram(config *CompilationConfig, irFile string, keepIntermediate bool, features x86_64.Features, outputFile string) error {
	quadRoot, err := getQuadRoot()
	if err != nil {
		return fmt.Errorf("failed to determine QUADROOT: %w", err)
	}

	binFile := outputFile
	if binFile == "" {
		binFile = strings.TrimSuffix(irFile, filepath.Ext(irFile))
	}
	baseName := strings.TrimSuffix(filepath.Base(binFile), filepath.Ext(binFile))
	outputDir := filepath.Dir(binFile)
	asmFile := filepath.Join(outputDir, baseName+".s")
	objFile := filepath.Join(outputDir, baseName+".o")

	runtimePath := filepath.Join(quadRoot, "runtime", "libquad.a")

	// Step 1: Compile the IR to .s
	program, err := irfile.LoadFile(irFile)
	if err != nil {
		return err
	}
	asm, err := os.Create(asmFile)
	if err != nil {
		return err
	}
	err = codegen.Generate(asm, codegen.TargetX86_64Linux, features, program)
	if closeErr := asm.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(asmFile)
		return fmt.Errorf("code generation failed: %w", err)
	}

	// Step 2: Assemble .s to .o
	asArgs := append(config.AssemblerFlags, "-o", objFile, asmFile)
	asCmd := exec.Command(config.Assembler, asArgs...)
	if output, err := asCmd.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "assembly failed: %v\nOutput: %s\n", err, string(output))
		return err
	}

	// Step 3: Link .o to executable
	ldArgs := append([]string{"-o", binFile, "-e", features.Entry, objFile, runtimePath}, config.LinkerFlags...)
	ldCmd := exec.Command(config.Linker, ldArgs...)
	if output, err := ldCmd.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "linking failed: %v\nOutput: %s\n", err, string(output))
		return err
	}

	if !keepIntermediate {
		os.Remove(asmFile)
		os.Remove(objFile)
	}

	fmt.Printf("Built %s\n", binFile)
	return nil
}

func getCompilationConfig() (*CompilationConfig, error) {
	if runtime.GOOS == "linux" && runtime.GOARCH == "amd64" {
		return &CompilationConfig{
			Assembler:      "as",
			AssemblerFlags: []string{"--64"},
			Linker:         "ld",
			LinkerFlags:    []string{},
		}, nil
	}
	return nil, fmt.Errorf("unsupported platform: %s/%s", runtime.GOOS, runtime.GOARCH)
}

// getQuadRoot returns the root directory holding the runtime library, either
// from QUADROOT or from the location of the quad binary.
func getQuadRoot() (string, error) {
	if root := os.Getenv("QUADROOT"); root != "" {
		return root, nil
	}

	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Dir(execPath), nil
}
