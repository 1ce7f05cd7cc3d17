package ir

import (
	"fmt"
)

// Quad is implemented by the quad structs in this file and nothing else.
// Quads are immutable once built, apart from their labels.
type Quad interface {
	fmt.Stringer
	Labels() []*Label
	addLabel(*Label)
}

type quadBase struct {
	labels []*Label
}

func (q *quadBase) Labels() []*Label {
	return q.labels
}

func (q *quadBase) addLabel(l *Label) {
	q.labels = append(q.labels, l)
}

type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMult
	BinDiv
	BinAnd
	BinOr
	BinEq
	BinNeq
	BinLt
	BinGt
	BinLte
	BinGte
)

var binOpNames = []string{"add", "sub", "mult", "div", "and", "or", "eq", "neq", "lt", "gt", "lte", "gte"}

func (op BinOp) String() string {
	if op >= 0 && int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return fmt.Sprintf("binop(%d)", int(op))
}

func BinOpFromName(name string) (BinOp, error) {
	for i, n := range binOpNames {
		if n == name {
			return BinOp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown binary operator: %q", name)
}

// IsComparison reports whether op produces a boolean.
func (op BinOp) IsComparison() bool {
	return op >= BinEq && op <= BinGte
}

type UnOp int

const (
	UnCopy UnOp = iota
	UnNeg
	UnNot
)

var unOpNames = []string{"copy", "neg", "not"}

func (op UnOp) String() string {
	if op >= 0 && int(op) < len(unOpNames) {
		return unOpNames[op]
	}
	return fmt.Sprintf("unop(%d)", int(op))
}

func UnOpFromName(name string) (UnOp, error) {
	for i, n := range unOpNames {
		if n == name {
			return UnOp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown unary operator: %q", name)
}

type BinaryOp struct {
	quadBase
	Op   BinOp
	Src1 Operand
	Src2 Operand
	Dst  Operand
}

func (q *BinaryOp) String() string {
	return fmt.Sprintf("%s := %s %s %s", q.Dst, q.Src1, q.Op, q.Src2)
}

type UnaryOp struct {
	quadBase
	Op  UnOp
	Src Operand
	Dst Operand
}

func (q *UnaryOp) String() string {
	return fmt.Sprintf("%s := %s %s", q.Dst, q.Op, q.Src)
}

type Assign struct {
	quadBase
	Src Operand
	Dst Operand
}

func (q *Assign) String() string {
	return fmt.Sprintf("%s := %s", q.Dst, q.Src)
}

type Goto struct {
	quadBase
	Target *Label
}

func (q *Goto) String() string {
	return fmt.Sprintf("goto %s", q.Target)
}

// IfZero jumps to Target when Cond is zero (false).
type IfZero struct {
	quadBase
	Cond   Operand
	Target *Label
}

func (q *IfZero) String() string {
	return fmt.Sprintf("IFZ %s GOTO %s", q.Cond, q.Target)
}

type Nop struct {
	quadBase
}

func (q *Nop) String() string {
	return "nop"
}

type Call struct {
	quadBase
	Callee *Procedure
}

func (q *Call) String() string {
	return fmt.Sprintf("call %s", q.Callee.Name)
}

type Enter struct {
	quadBase
	Proc *Procedure
}

func (q *Enter) String() string {
	return fmt.Sprintf("enter %s", q.Proc.Name)
}

type Leave struct {
	quadBase
	Proc *Procedure
}

func (q *Leave) String() string {
	return fmt.Sprintf("leave %s", q.Proc.Name)
}

// SetArg passes Opd as the Index-th (1-based) argument of the next call.
type SetArg struct {
	quadBase
	Index int
	Opd   Operand
}

func (q *SetArg) String() string {
	return fmt.Sprintf("setarg %d %s", q.Index, q.Opd)
}

type GetArg struct {
	quadBase
	Index int
	Opd   Operand
}

func (q *GetArg) String() string {
	return fmt.Sprintf("getarg %d %s", q.Index, q.Opd)
}

type SetRet struct {
	quadBase
	Opd Operand
}

func (q *SetRet) String() string {
	return fmt.Sprintf("setret %s", q.Opd)
}

type GetRet struct {
	quadBase
	Opd Operand
}

func (q *GetRet) String() string {
	return fmt.Sprintf("getret %s", q.Opd)
}

type Output struct {
	quadBase
	Opd Operand
}

func (q *Output) String() string {
	return fmt.Sprintf("OUTPUT %s", q.Opd)
}

type Input struct {
	quadBase
	Opd Operand
}

func (q *Input) String() string {
	return fmt.Sprintf("INPUT %s", q.Opd)
}

// Mayhem is the compiler-internal runtime service call.
type Mayhem struct {
	quadBase
	Opd Operand
}

func (q *Mayhem) String() string {
	return fmt.Sprintf("MAYHEM %s", q.Opd)
}

type AddrOf struct {
	quadBase
	Src Operand
	Dst Operand
}

func (q *AddrOf) String() string {
	return fmt.Sprintf("%s := &%s", q.Dst, q.Src)
}
