package asm

// Program is a complete translation unit: a data section followed by the
// text of every function, in order.
type Program struct {
	Entry           string
	StringLiterals  []StringLiteral
	GlobalVariables []GlobalVariable
	Functions       []Function
}

type Function struct {
	Name  string
	Lines []Line
}

// Line is one of: a label, an instruction, or a comment on its own. An
// instruction may carry a trailing comment.
type Line struct {
	Comment string
	Label   string
	Op      string
	Arity   int
	Arg1    Arg
	Arg2    Arg
}

type Arg struct {
	Reg    string
	Offset int
	Imm    *int64
	Label  string
	Deref  bool
}

type StringLiteral struct {
	Label string
	Text  string
}

type GlobalVariable struct {
	Label string
	Size  int
}

func Imm(value int64) Arg {
	return Arg{Imm: &value}
}

func Reg(reg string) Arg {
	return Arg{Reg: reg}
}

func Ref(label string) Arg {
	return Arg{Label: label}
}

// Deref is the memory operand offset(%reg).
func Deref(reg string, offset int) Arg {
	return Arg{Reg: reg, Offset: offset, Deref: true}
}

// RipRel is the memory operand label(%rip).
func RipRel(label string) Arg {
	return Arg{Label: label, Reg: "rip", Deref: true}
}

// AsAddress strips the dereference so the argument denotes the address
// itself, as leaq expects.
func (a Arg) AsAddress() Arg {
	result := a
	result.Deref = false
	return result
}

func Op0(op string) Line {
	return Line{Op: op}
}

func Op1(op string, arg Arg) Line {
	return Line{Op: op, Arity: 1, Arg1: arg}
}

func Op2(op string, arg1, arg2 Arg) Line {
	return Line{Op: op, Arity: 2, Arg1: arg1, Arg2: arg2}
}

func Comment(text string) Line {
	return Line{Comment: text}
}

func Label(text string) Line {
	return Line{Label: text}
}
