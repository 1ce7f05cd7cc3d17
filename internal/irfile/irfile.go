// Package irfile reads quad programs from YAML so the back end can be driven
// without a front end.
package irfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/iley/quadc/internal/codegen/common"
	"github.com/iley/quadc/internal/ir"
)

var ErrUndefined = errors.New("undefined name")

type File struct {
	Strings    []string        `yaml:"strings"`
	Globals    []SymbolDecl    `yaml:"globals"`
	Procedures []ProcedureDecl `yaml:"procedures"`
}

// SymbolDecl declares a global, temp, local, formal or address-taken operand.
// For address-taken operands Width and Kind describe the pointee.
type SymbolDecl struct {
	Name  string `yaml:"name"`
	Width int    `yaml:"width"`
	Kind  string `yaml:"kind"`
}

type ProcedureDecl struct {
	Name    string       `yaml:"name"`
	Temps   []SymbolDecl `yaml:"temps"`
	Locals  []SymbolDecl `yaml:"locals"`
	Formals []SymbolDecl `yaml:"formals"`
	Addrs   []SymbolDecl `yaml:"addrs"`
	// Label attached to the Leave quad.
	Exit string     `yaml:"exit"`
	Body []QuadDecl `yaml:"body"`
}

type QuadDecl struct {
	Op       string      `yaml:"op"`
	Operator string      `yaml:"operator"`
	Src      *OperandRef `yaml:"src"`
	Src2     *OperandRef `yaml:"src2"`
	Dst      *OperandRef `yaml:"dst"`
	Target   string      `yaml:"target"`
	Callee   string      `yaml:"callee"`
	Index    int         `yaml:"index"`
	Labels   []string    `yaml:"labels"`
}

// OperandRef is either a bare name or a literal mapping with exactly one of
// the keys int, bool, char or str.
type OperandRef struct {
	Name string
	Int  *int64
	Bool *bool
	Char *byte
	Str  *string
}

func (r *OperandRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&r.Name)
	case yaml.MappingNode:
		var lit struct {
			Int  *int64  `yaml:"int"`
			Bool *bool   `yaml:"bool"`
			Char *string `yaml:"char"`
			Str  *string `yaml:"str"`
		}
		if err := node.Decode(&lit); err != nil {
			return err
		}
		set := lo.Count([]bool{lit.Int != nil, lit.Bool != nil, lit.Char != nil, lit.Str != nil}, true)
		if set != 1 {
			return fmt.Errorf("line %d: literal must have exactly one of int, bool, char, str", node.Line)
		}
		r.Int, r.Bool, r.Str = lit.Int, lit.Bool, lit.Str
		if lit.Char != nil {
			if len(*lit.Char) != 1 {
				return fmt.Errorf("line %d: char literal %q must be a single byte", node.Line, *lit.Char)
			}
			c := (*lit.Char)[0]
			r.Char = &c
		}
		return nil
	default:
		return fmt.Errorf("line %d: operand must be a name or a literal mapping", node.Line)
	}
}

func (r *OperandRef) String() string {
	switch {
	case r.Int != nil:
		return strconv.FormatInt(*r.Int, 10)
	case r.Bool != nil:
		return strconv.FormatBool(*r.Bool)
	case r.Char != nil:
		return strconv.QuoteRune(rune(*r.Char))
	case r.Str != nil:
		return strconv.Quote(*r.Str)
	}
	return r.Name
}

func LoadFile(path string) (*ir.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	program, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}

func Load(r io.Reader) (*ir.Program, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing IR file: %w", err)
	}
	return Build(&file)
}

type builder struct {
	program    *ir.Program
	strings    map[string]bool
	globals    map[string]ir.Operand
	procedures map[string]*ir.Procedure
	labels     map[string]*ir.Label
}

// Build turns a decoded file into a program. Procedures may call each other
// regardless of declaration order and labels may be referenced before the
// quad they are attached to.
func Build(file *File) (*ir.Program, error) {
	b := &builder{
		program:    &ir.Program{},
		strings:    make(map[string]bool),
		globals:    make(map[string]ir.Operand),
		procedures: make(map[string]*ir.Procedure),
		labels:     make(map[string]*ir.Label),
	}

	for _, s := range file.Strings {
		b.addString(s)
	}
	for _, decl := range file.Globals {
		width, kind, err := symbolType(decl)
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", decl.Name, err)
		}
		if _, exists := b.globals[decl.Name]; exists {
			return nil, fmt.Errorf("global %s: %w", decl.Name, common.ErrDuplicateSymbol)
		}
		b.globals[decl.Name] = b.program.AddGlobal(decl.Name, width, kind)
	}

	for _, decl := range file.Procedures {
		if _, exists := b.procedures[decl.Name]; exists {
			return nil, fmt.Errorf("procedure %s: %w", decl.Name, common.ErrDuplicateSymbol)
		}
		b.procedures[decl.Name] = b.program.AddProcedure(decl.Name)
	}

	// Labels are program-wide since they become assembler symbols.
	for _, decl := range file.Procedures {
		names := []string{}
		if decl.Exit != "" {
			names = append(names, decl.Exit)
		}
		for _, q := range decl.Body {
			names = append(names, q.Labels...)
		}
		for _, name := range names {
			if _, exists := b.labels[name]; exists {
				return nil, fmt.Errorf("procedure %s: label %s: %w", decl.Name, name, common.ErrDuplicateSymbol)
			}
			b.labels[name] = ir.NewLabel(name)
		}
	}

	for _, decl := range file.Procedures {
		if err := b.buildProcedure(decl); err != nil {
			return nil, fmt.Errorf("procedure %s: %w", decl.Name, err)
		}
	}

	slog.Debug("loaded IR", "procedures", len(b.program.Procedures), "globals", len(b.program.Globals), "strings", len(b.program.Strings))
	return b.program, nil
}

func (b *builder) addString(s string) {
	if !b.strings[s] {
		b.strings[s] = true
		b.program.AddString(s)
	}
}

func symbolType(decl SymbolDecl) (int, ir.Kind, error) {
	if decl.Name == "" {
		return 0, 0, fmt.Errorf("symbol without a name")
	}
	width := decl.Width
	if width == 0 {
		width = ir.WordWidth
	}
	if !ir.SupportedWidth(width) {
		return 0, 0, fmt.Errorf("unsupported width %d, must be %d or %d: %w", width, ir.ByteWidth, ir.WordWidth, common.ErrUnimplemented)
	}
	kind := ir.KindInt
	if decl.Kind != "" {
		var err error
		kind, err = ir.KindFromName(decl.Kind)
		if err != nil {
			return 0, 0, err
		}
	}
	return width, kind, nil
}

type procContext struct {
	*builder
	proc *ir.Procedure
	// Resolution order: temps, addrs, locals, formals. Globals come last.
	scopes []map[string]ir.Operand
}

func (b *builder) buildProcedure(decl ProcedureDecl) error {
	pc := &procContext{builder: b, proc: b.procedures[decl.Name]}

	declared := make(map[string]bool)
	declare := func(decls []SymbolDecl, add func(name string, width int, kind ir.Kind) ir.Operand) error {
		scope := make(map[string]ir.Operand)
		for _, d := range decls {
			width, kind, err := symbolType(d)
			if err != nil {
				return err
			}
			if declared[d.Name] {
				return fmt.Errorf("%s: %w", d.Name, common.ErrDuplicateSymbol)
			}
			declared[d.Name] = true
			scope[d.Name] = add(d.Name, width, kind)
		}
		pc.scopes = append(pc.scopes, scope)
		return nil
	}

	proc := pc.proc
	err := declare(decl.Temps, func(name string, width int, kind ir.Kind) ir.Operand {
		tmp := &ir.AuxOperand{Name: name, Size: width, ValueKind: kind}
		proc.Temps = append(proc.Temps, tmp)
		return tmp
	})
	if err != nil {
		return err
	}
	err = declare(decl.Addrs, func(name string, width int, kind ir.Kind) ir.Operand {
		addr := &ir.AddrOperand{Name: name, PointeeWidth: width, PointeeKind: kind}
		proc.AddrTaken = append(proc.AddrTaken, addr)
		return addr
	})
	if err != nil {
		return err
	}
	err = declare(decl.Locals, func(name string, width int, kind ir.Kind) ir.Operand {
		return proc.AddLocal(name, width, kind)
	})
	if err != nil {
		return err
	}
	err = declare(decl.Formals, func(name string, width int, kind ir.Kind) ir.Operand {
		return proc.AddFormal(name, width, kind)
	})
	if err != nil {
		return err
	}

	for i, qd := range decl.Body {
		q, err := pc.buildQuad(qd)
		if err != nil {
			// Index 0 is Enter, so body quads are numbered from 1.
			return fmt.Errorf("quad %d (%s): %w", i+1, qd.Op, err)
		}
		for _, name := range qd.Labels {
			if err := ir.AttachLabel(q, b.labels[name]); err != nil {
				return err
			}
		}
		proc.Append(q)
	}

	if decl.Exit != "" {
		if err := ir.AttachLabel(proc.Leave, b.labels[decl.Exit]); err != nil {
			return err
		}
	}
	return nil
}

func (pc *procContext) operand(ref *OperandRef, field string) (ir.Operand, error) {
	if ref == nil {
		return nil, fmt.Errorf("missing %s", field)
	}
	switch {
	case ref.Int != nil:
		return ir.IntLit(*ref.Int), nil
	case ref.Bool != nil:
		return ir.BoolLit(*ref.Bool), nil
	case ref.Char != nil:
		return ir.CharLit(*ref.Char), nil
	case ref.Str != nil:
		pc.addString(*ref.Str)
		return ir.StringLit(*ref.Str), nil
	}
	for _, scope := range pc.scopes {
		if opd, ok := scope[ref.Name]; ok {
			return opd, nil
		}
	}
	if opd, ok := pc.globals[ref.Name]; ok {
		return opd, nil
	}
	return nil, fmt.Errorf("%s: operand %s: %w", field, ref.Name, ErrUndefined)
}

func (pc *procContext) label(name string) (*ir.Label, error) {
	if name == "" {
		return nil, fmt.Errorf("missing target")
	}
	l, ok := pc.labels[name]
	if !ok {
		return nil, fmt.Errorf("label %s: %w", name, ErrUndefined)
	}
	return l, nil
}

func (pc *procContext) buildQuad(qd QuadDecl) (ir.Quad, error) {
	switch qd.Op {
	case "binop":
		op, err := ir.BinOpFromName(qd.Operator)
		if err != nil {
			return nil, err
		}
		src1, src2, dst, err := pc.operands3(qd)
		if err != nil {
			return nil, err
		}
		return &ir.BinaryOp{Op: op, Src1: src1, Src2: src2, Dst: dst}, nil
	case "unop":
		op, err := ir.UnOpFromName(qd.Operator)
		if err != nil {
			return nil, err
		}
		src, dst, err := pc.operands2(qd)
		if err != nil {
			return nil, err
		}
		return &ir.UnaryOp{Op: op, Src: src, Dst: dst}, nil
	case "assign":
		src, dst, err := pc.operands2(qd)
		if err != nil {
			return nil, err
		}
		return &ir.Assign{Src: src, Dst: dst}, nil
	case "addrof":
		src, dst, err := pc.operands2(qd)
		if err != nil {
			return nil, err
		}
		return &ir.AddrOf{Src: src, Dst: dst}, nil
	case "goto":
		target, err := pc.label(qd.Target)
		if err != nil {
			return nil, err
		}
		return &ir.Goto{Target: target}, nil
	case "ifz":
		cond, err := pc.operand(qd.Src, "src")
		if err != nil {
			return nil, err
		}
		target, err := pc.label(qd.Target)
		if err != nil {
			return nil, err
		}
		return &ir.IfZero{Cond: cond, Target: target}, nil
	case "nop":
		return &ir.Nop{}, nil
	case "call":
		callee, ok := pc.procedures[qd.Callee]
		if !ok {
			return nil, fmt.Errorf("callee %q: %w", qd.Callee, ErrUndefined)
		}
		return &ir.Call{Callee: callee}, nil
	case "setarg", "getarg":
		if qd.Index < 1 {
			return nil, fmt.Errorf("argument index must be at least 1, got %d", qd.Index)
		}
		field, ref := "src", qd.Src
		if qd.Op == "getarg" {
			field, ref = "dst", qd.Dst
		}
		opd, err := pc.operand(ref, field)
		if err != nil {
			return nil, err
		}
		if qd.Op == "getarg" {
			return &ir.GetArg{Index: qd.Index, Opd: opd}, nil
		}
		return &ir.SetArg{Index: qd.Index, Opd: opd}, nil
	case "setret", "output", "mayhem":
		opd, err := pc.operand(qd.Src, "src")
		if err != nil {
			return nil, err
		}
		switch qd.Op {
		case "setret":
			return &ir.SetRet{Opd: opd}, nil
		case "output":
			return &ir.Output{Opd: opd}, nil
		}
		return &ir.Mayhem{Opd: opd}, nil
	case "getret", "input":
		opd, err := pc.operand(qd.Dst, "dst")
		if err != nil {
			return nil, err
		}
		if qd.Op == "getret" {
			return &ir.GetRet{Opd: opd}, nil
		}
		return &ir.Input{Opd: opd}, nil
	}
	return nil, fmt.Errorf("unknown op %q", qd.Op)
}

func (pc *procContext) operands2(qd QuadDecl) (ir.Operand, ir.Operand, error) {
	src, err := pc.operand(qd.Src, "src")
	if err != nil {
		return nil, nil, err
	}
	dst, err := pc.operand(qd.Dst, "dst")
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

func (pc *procContext) operands3(qd QuadDecl) (ir.Operand, ir.Operand, ir.Operand, error) {
	src1, dst, err := pc.operands2(qd)
	if err != nil {
		return nil, nil, nil, err
	}
	src2, err := pc.operand(qd.Src2, "src2")
	if err != nil {
		return nil, nil, nil, err
	}
	return src1, src2, dst, nil
}
