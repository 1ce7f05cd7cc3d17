package ir

import (
	"fmt"

	"github.com/iley/quadc/internal/util"
)

// Operand is implemented by exactly four types: *SymOperand, *AuxOperand,
// *AddrOperand and *LitOperand. Operands are compared by pointer identity.
type Operand interface {
	fmt.Stringer
	// Width of the operand's value in bytes.
	Width() int
	Kind() Kind
	operand()
}

// SymOperand refers to a declared global or local variable.
type SymOperand struct {
	Sym *Symbol
}

func NewSymOperand(name string, width int, kind Kind) *SymOperand {
	return &SymOperand{Sym: &Symbol{Name: name, Width: width, Kind: kind}}
}

func (o *SymOperand) String() string { return o.Sym.Name }
func (o *SymOperand) Width() int { return o.Sym.Width }
func (o *SymOperand) Kind() Kind { return o.Sym.Kind }
func (o *SymOperand) operand() {}

// AuxOperand is a compiler-generated temporary.
type AuxOperand struct {
	Name      string
	Size      int
	ValueKind Kind
}

func (o *AuxOperand) String() string { return "[" + o.Name + "]" }
func (o *AuxOperand) Width() int { return o.Size }
func (o *AuxOperand) Kind() Kind { return o.ValueKind }
func (o *AuxOperand) operand() {}

// AddrOperand holds the address of another value. Its width and kind
// describe the pointee, since loading its value goes through the pointer.
type AddrOperand struct {
	Name         string
	PointeeWidth int
	PointeeKind  Kind
}

func (o *AddrOperand) String() string { return "[" + o.Name + "]" }
func (o *AddrOperand) Width() int { return o.PointeeWidth }
func (o *AddrOperand) Kind() Kind { return o.PointeeKind }
func (o *AddrOperand) operand() {}

type LitKind int

const (
	LitInt LitKind = iota
	LitBool
	LitChar
	LitString
)

// LitOperand is an immediate. It has no memory location.
type LitOperand struct {
	Lit  LitKind
	Int  int64
	Bool bool
	Char byte
	Str  string
}

func IntLit(value int64) *LitOperand { return &LitOperand{Lit: LitInt, Int: value} }
func BoolLit(value bool) *LitOperand { return &LitOperand{Lit: LitBool, Bool: value} }
func CharLit(value byte) *LitOperand { return &LitOperand{Lit: LitChar, Char: value} }
func StringLit(s string) *LitOperand { return &LitOperand{Lit: LitString, Str: s} }

func (o *LitOperand) String() string {
	switch o.Lit {
	case LitInt:
		return fmt.Sprintf("%d", o.Int)
	case LitBool:
		return fmt.Sprintf("%t", o.Bool)
	case LitChar:
		return fmt.Sprintf("'%s'", util.EscapeString(string([]byte{o.Char})))
	case LitString:
		return fmt.Sprintf("\"%s\"", util.EscapeString(o.Str))
	}
	panic(fmt.Sprintf("invalid literal: %#v", o))
}

func (o *LitOperand) Width() int {
	switch o.Lit {
	case LitBool, LitChar:
		return ByteWidth
	default:
		return WordWidth
	}
}

func (o *LitOperand) Kind() Kind {
	switch o.Lit {
	case LitBool:
		return KindBool
	case LitChar:
		return KindChar
	case LitString:
		return KindString
	default:
		return KindInt
	}
}

// Value returns the immediate for non-string literals: booleans map to 1
// and 0, characters to their code.
func (o *LitOperand) Value() int64 {
	switch o.Lit {
	case LitBool:
		if o.Bool {
			return 1
		}
		return 0
	case LitChar:
		return int64(o.Char)
	case LitString:
		panic("string literal has no immediate value")
	default:
		return o.Int
	}
}

func (o *LitOperand) operand() {}
