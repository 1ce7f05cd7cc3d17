package ir

import (
	"fmt"
	"io"
)

/*
Quad IR consumed by the x86_64 back end. Upstream phases build it fully
before code generation starts and nothing in the back end mutates it, except
for attaching labels to quads while the graph is being constructed.

A Program owns global operands, a string table and procedures. A Procedure
owns its temporaries, locals, formals and address-taken operands, plus an
ordered body of quads framed by an Enter and a Leave quad.

Supported quads:
 * BinaryOp(Dst = Src1 op Src2)
 * UnaryOp(Dst = op Src)
 * Assign(Dst = Src)
 * Goto(Label), IfZero(Cond, Label), Nop
 * Call(Procedure), Enter(Procedure), Leave(Procedure)
 * SetArg(i, Opd), GetArg(i, Opd), SetRet(Opd), GetRet(Opd)
 * Output(Opd), Input(Opd), Mayhem(Opd) - runtime intrinsics
 * AddrOf(Dst = &Src)
*/

// Storage widths in bytes.
const (
	ByteWidth = 1
	WordWidth = 8
)

// SupportedWidth reports whether values of the given width can be stored.
func SupportedWidth(width int) bool {
	return width == ByteWidth || width == WordWidth
}

// Kind classifies the value an operand holds. The back end only looks at it
// to select runtime intrinsics.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindChar
	KindString
	KindPtr
)

var kindNames = map[Kind]string{
	KindInt:    "int",
	KindBool:   "bool",
	KindChar:   "char",
	KindString: "string",
	KindPtr:    "ptr",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func KindFromName(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown value kind: %q", name)
}

// Symbol is the semantic analyzer's record of a declared name.
type Symbol struct {
	Name  string
	Width int
	Kind  Kind
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s/%d", s.Name, s.Width)
}

// Label is a control transfer target. It belongs to exactly one quad once
// attached.
type Label struct {
	Name string
	quad Quad
}

func NewLabel(name string) *Label {
	return &Label{Name: name}
}

// Quad returns the quad the label precedes or nil if it was never attached.
func (l *Label) Quad() Quad {
	return l.quad
}

func (l *Label) String() string {
	return l.Name
}

// AttachLabel places l in front of q.
func AttachLabel(q Quad, l *Label) error {
	if l.quad != nil {
		return fmt.Errorf("label %s is already attached to %s", l.Name, l.quad)
	}
	l.quad = q
	q.addLabel(l)
	return nil
}

type Procedure struct {
	Name      string
	Enter     *Enter
	Leave     *Leave
	Body      []Quad
	Temps     []*AuxOperand
	Locals    []*SymOperand
	Formals   []*SymOperand
	AddrTaken []*AddrOperand
}

func NewProcedure(name string) *Procedure {
	proc := &Procedure{Name: name}
	proc.Enter = &Enter{Proc: proc}
	proc.Leave = &Leave{Proc: proc}
	return proc
}

func (p *Procedure) Append(quads ...Quad) {
	p.Body = append(p.Body, quads...)
}

func (p *Procedure) NewTemp(width int, kind Kind) *AuxOperand {
	tmp := &AuxOperand{Name: fmt.Sprintf("tmp%d", len(p.Temps)), Size: width, ValueKind: kind}
	p.Temps = append(p.Temps, tmp)
	return tmp
}

func (p *Procedure) AddLocal(name string, width int, kind Kind) *SymOperand {
	opd := NewSymOperand(name, width, kind)
	p.Locals = append(p.Locals, opd)
	return opd
}

func (p *Procedure) AddFormal(name string, width int, kind Kind) *SymOperand {
	opd := NewSymOperand(name, width, kind)
	p.Formals = append(p.Formals, opd)
	return opd
}

func (p *Procedure) NewAddr(pointeeWidth int, kind Kind) *AddrOperand {
	opd := &AddrOperand{Name: fmt.Sprintf("addr%d", len(p.AddrTaken)), PointeeWidth: pointeeWidth, PointeeKind: kind}
	p.AddrTaken = append(p.AddrTaken, opd)
	return opd
}

// Quads returns the procedure's quads in emission order: Enter, body, Leave.
func (p *Procedure) Quads() []Quad {
	quads := make([]Quad, 0, len(p.Body)+2)
	quads = append(quads, p.Enter)
	quads = append(quads, p.Body...)
	quads = append(quads, p.Leave)
	return quads
}

func (p *Procedure) Print(writer io.Writer) {
	fmt.Fprintf(writer, "Procedure %s:\n", p.Name)
	for i, q := range p.Quads() {
		for _, l := range q.Labels() {
			fmt.Fprintf(writer, "%s:\n", l.Name)
		}
		fmt.Fprintf(writer, "%4d  %s\n", i, q)
	}
}

type Program struct {
	Globals    []*SymOperand
	Strings    []string
	Procedures []*Procedure
}

func (p *Program) AddGlobal(name string, width int, kind Kind) *SymOperand {
	opd := NewSymOperand(name, width, kind)
	p.Globals = append(p.Globals, opd)
	return opd
}

// AddString registers a string constant and returns a literal operand
// referring to it.
func (p *Program) AddString(s string) *LitOperand {
	p.Strings = append(p.Strings, s)
	return StringLit(s)
}

func (p *Program) AddProcedure(name string) *Procedure {
	proc := NewProcedure(name)
	p.Procedures = append(p.Procedures, proc)
	return proc
}

// Procedure looks up a procedure by name. Returns nil if there is none.
func (p *Program) Procedure(name string) *Procedure {
	for _, proc := range p.Procedures {
		if proc.Name == name {
			return proc
		}
	}
	return nil
}

func (p *Program) Print(writer io.Writer) {
	for _, g := range p.Globals {
		fmt.Fprintf(writer, "Global %s\n", g.Sym)
	}
	for i, s := range p.Strings {
		fmt.Fprintf(writer, "String %d: %s\n", i, StringLit(s))
	}
	for _, proc := range p.Procedures {
		fmt.Fprintf(writer, "\n")
		proc.Print(writer)
	}
}
