package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tebeka/atexit"

	"github.com/iley/quadc/internal/codegen"
	"github.com/iley/quadc/internal/codegen/x86_64"
	"github.com/iley/quadc/internal/irfile"
)

// AssemblerConfig holds the command used to check that generated code
// assembles.
type AssemblerConfig struct {
	Assembler      string
	AssemblerFlags []string
}

func getAssemblerConfig() (*AssemblerConfig, error) {
	switch runtime.GOOS {
	case "linux":
		return &AssemblerConfig{
			Assembler:      "as",
			AssemblerFlags: []string{"--64"},
		}, nil
	}
	return nil, fmt.Errorf("unsupported platform for assembling: %s/%s", runtime.GOOS, runtime.GOARCH)
}

// TestCase is an IR program with its expected assembly.
type TestCase struct {
	Name         string
	IrFile       string
	ExpectedFile string
}

func discoverTests(testsDir string) ([]TestCase, error) {
	var tests []TestCase

	err := filepath.WalkDir(testsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}
		baseName := strings.TrimSuffix(filepath.Base(path), ".yaml")
		tests = append(tests, TestCase{
			Name:         baseName,
			IrFile:       path,
			ExpectedFile: strings.TrimSuffix(path, ".yaml") + ".s",
		})
		return nil
	})

	return tests, err
}

func compileTest(testCase TestCase, features x86_64.Features) (string, error) {
	program, err := irfile.LoadFile(testCase.IrFile)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := codegen.Generate(&out, codegen.TargetX86_64Linux, features, program); err != nil {
		return "", err
	}
	return out.String(), nil
}

// assembleTest runs the assembler over the generated code. The object file
// is discarded.
func assembleTest(config *AssemblerConfig, testCase TestCase, code string) error {
	tmpDir, err := os.MkdirTemp("", "quadc-"+testCase.Name)
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	asmFile := filepath.Join(tmpDir, testCase.Name+".s")
	if err := os.WriteFile(asmFile, []byte(code), 0o644); err != nil {
		return err
	}
	args := append(config.AssemblerFlags, "-o", filepath.Join(tmpDir, testCase.Name+".o"), asmFile)
	if output, err := exec.Command(config.Assembler, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("assembly failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

type result struct {
	passed  bool
	message string
}

func runSingleTest(config *AssemblerConfig, testCase TestCase, features x86_64.Features, update bool) result {
	actual, err := compileTest(testCase, features)
	if err != nil {
		return result{message: fmt.Sprintf("compilation error: %v", err)}
	}

	if config != nil {
		if err := assembleTest(config, testCase, actual); err != nil {
			return result{message: err.Error()}
		}
	}

	if update {
		if err := os.WriteFile(testCase.ExpectedFile, []byte(actual), 0o644); err != nil {
			return result{message: fmt.Sprintf("error writing expected output: %v", err)}
		}
		return result{passed: true, message: "updated"}
	}

	expected, err := os.ReadFile(testCase.ExpectedFile)
	if err != nil {
		return result{message: fmt.Sprintf("error reading expected output: %v", err)}
	}
	if diff := cmp.Diff(string(expected), actual); diff != "" {
		return result{message: fmt.Sprintf("output mismatch (-expected +actual):\n%s", diff)}
	}
	return result{passed: true}
}

// findTestCase finds a test case by name or path.
func findTestCase(tests []TestCase, identifier string) (*TestCase, error) {
	identifier = strings.TrimSuffix(filepath.Base(identifier), ".yaml")
	for _, test := range tests {
		if test.Name == identifier {
			return &test, nil
		}
	}
	return nil, fmt.Errorf("test not found: %s", identifier)
}

func main() {
	testsDir := flag.String("dir", "testdata", "directory with IR programs and expected assembly")
	update := flag.Bool("update", false, "overwrite expected assembly with the current output")
	assemble := flag.Bool("assemble", false, "also check that the output assembles")
	parallel := flag.Bool("j", false, "generate procedures in parallel")
	flag.Parse()

	var config *AssemblerConfig
	if *assemble {
		var err error
		config, err = getAssemblerConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			atexit.Exit(1)
		}
	}

	tests, err := discoverTests(*testsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering tests: %v\n", err)
		atexit.Exit(1)
	}
	if len(tests) == 0 {
		fmt.Printf("No tests found in %s\n", *testsDir)
		return
	}

	sort.Slice(tests, func(i, j int) bool {
		return tests[i].Name < tests[j].Name
	})

	testsToRun := tests
	if flag.NArg() > 0 {
		testsToRun = nil
		for _, identifier := range flag.Args() {
			testCase, err := findTestCase(tests, identifier)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				atexit.Exit(1)
			}
			testsToRun = append(testsToRun, *testCase)
		}
	}

	features := x86_64.Features{Parallel: *parallel}
	summary := table.NewWriter()
	summary.SetOutputMirror(os.Stdout)
	summary.AppendHeader(table.Row{"Test", "Result"})

	passed, failed := 0, 0
	for _, test := range testsToRun {
		res := runSingleTest(config, test, features, *update)
		status := "PASS"
		if res.passed {
			passed++
			if res.message != "" {
				status = strings.ToUpper(res.message)
			}
		} else {
			failed++
			status = "FAIL"
			fmt.Printf("%s: %s\n", test.Name, res.message)
		}
		summary.AppendRow(table.Row{test.Name, status})
	}
	summary.AppendFooter(table.Row{"passed", fmt.Sprintf("%d/%d", passed, passed+failed)})
	summary.Render()

	if failed > 0 {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
