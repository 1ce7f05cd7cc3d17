package x86_64

import (
	"fmt"

	"github.com/iley/quadc/internal/asm"
	"github.com/iley/quadc/internal/codegen/common"
	"github.com/iley/quadc/internal/ir"
)

// Runtime library entry points. Each takes its argument in %rdi and the
// input routines return their result in %rax.
const (
	printIntRoutine    = "printInt"
	printByteRoutine   = "printByte"
	printStringRoutine = "printString"
	readIntRoutine     = "readInt"
	readByteRoutine    = "readByte"
	readStringRoutine  = "readString"
)

// Bytes between %rbp and the saved frame pointer after the prologue.
const prologueDisplacement = 8

func generateLabels(q ir.Quad) []asm.Line {
	var lines []asm.Line
	for _, l := range q.Labels() {
		lines = append(lines, asm.Label(l.Name))
	}
	return lines
}

func generateQuad(cc *CodegenContext, quad ir.Quad) ([]asm.Line, error) {
	switch q := quad.(type) {
	case *ir.BinaryOp:
		return generateBinaryOp(cc, q)
	case *ir.UnaryOp:
		return generateUnaryOp(cc, q)
	case *ir.Assign:
		return generateCopy(cc, q.Src, q.Dst)
	case *ir.Goto:
		return []asm.Line{asm.Op1("jmp", asm.Ref(q.Target.Name))}, nil
	case *ir.IfZero:
		lines, err := generateLoadValue(cc, q.Cond, A)
		if err != nil {
			return nil, err
		}
		return append(lines,
			asm.Op2("cmpq", asm.Imm(0), asm.Reg(A.Name(8))),
			asm.Op1("je", asm.Ref(q.Target.Name))), nil
	case *ir.Nop:
		return []asm.Line{asm.Op0("nop")}, nil
	case *ir.Call:
		return generateCall(q), nil
	case *ir.Enter:
		return generateEnter(cc, q)
	case *ir.Leave:
		return generateLeave(cc), nil
	case *ir.SetArg:
		return generateSetArg(cc, q)
	case *ir.GetArg:
		// Enter has already copied every formal into its slot.
		return nil, nil
	case *ir.SetRet:
		return generateLoadValue(cc, q.Opd, ReturnRegister)
	case *ir.GetRet:
		return generateStoreValue(cc, q.Opd, ReturnRegister)
	case *ir.Output:
		lines, err := generateLoadValue(cc, q.Opd, DI)
		if err != nil {
			return nil, err
		}
		return append(lines, asm.Op1("callq", asm.Ref(outputRoutine(q.Opd)))), nil
	case *ir.Input:
		lines := []asm.Line{asm.Op1("callq", asm.Ref(inputRoutine(q.Opd)))}
		store, err := generateStoreValue(cc, q.Opd, ReturnRegister)
		if err != nil {
			return nil, err
		}
		return append(lines, store...), nil
	case *ir.Mayhem:
		return nil, fmt.Errorf("runtime service call: %w", common.ErrUnimplemented)
	case *ir.AddrOf:
		lines, err := generateLoadAddress(cc, q.Src, A)
		if err != nil {
			return nil, err
		}
		store, err := generateStoreAddress(cc, q.Dst, A)
		if err != nil {
			return nil, err
		}
		return append(lines, store...), nil
	default:
		return nil, fmt.Errorf("unsupported quad type %T: %w", quad, common.ErrUnimplemented)
	}
}

func generateCopy(cc *CodegenContext, src, dst ir.Operand) ([]asm.Line, error) {
	lines, err := generateLoadValue(cc, src, A)
	if err != nil {
		return nil, err
	}
	store, err := generateStoreValue(cc, dst, A)
	if err != nil {
		return nil, err
	}
	return append(lines, store...), nil
}

func generateBinaryOp(cc *CodegenContext, q *ir.BinaryOp) ([]asm.Line, error) {
	lines, err := generateLoadValue(cc, q.Src1, A)
	if err != nil {
		return nil, err
	}
	right, err := generateLoadValue(cc, q.Src2, B)
	if err != nil {
		return nil, err
	}
	lines = append(lines, right...)

	rax, r10 := asm.Reg(A.Name(8)), asm.Reg(B.Name(8))
	result := B
	switch q.Op {
	case ir.BinAdd:
		lines = append(lines, asm.Op2("addq", rax, r10))
	case ir.BinSub:
		lines = append(lines, asm.Op2("subq", r10, rax))
		result = A
	case ir.BinMult:
		lines = append(lines, asm.Op2("imulq", r10, rax))
		result = A
	case ir.BinDiv:
		// idivq divides %rdx:%rax, so the dividend is sign-extended first.
		lines = append(lines, asm.Op0("cqto"), asm.Op1("idivq", r10))
		result = A
	case ir.BinAnd:
		lines = append(lines, asm.Op2("andq", rax, r10))
	case ir.BinOr:
		lines = append(lines, asm.Op2("orq", rax, r10))
	case ir.BinEq, ir.BinNeq, ir.BinLt, ir.BinGt, ir.BinLte, ir.BinGte:
		lines = append(lines,
			asm.Op2("cmpq", r10, rax),
			asm.Op1(setInstruction(q.Op), asm.Reg(B.Name(1))),
			asm.Op2("movzbq", asm.Reg(B.Name(1)), r10))
	default:
		return nil, fmt.Errorf("binary operator %s: %w", q.Op, common.ErrUnimplemented)
	}

	store, err := generateStoreValue(cc, q.Dst, result)
	if err != nil {
		return nil, err
	}
	return append(lines, store...), nil
}

func setInstruction(op ir.BinOp) string {
	switch op {
	case ir.BinEq:
		return "sete"
	case ir.BinNeq:
		return "setne"
	case ir.BinLt:
		return "setl"
	case ir.BinGt:
		return "setg"
	case ir.BinLte:
		return "setle"
	case ir.BinGte:
		return "setge"
	}
	panic(fmt.Errorf("not a comparison: %s", op))
}

func generateUnaryOp(cc *CodegenContext, q *ir.UnaryOp) ([]asm.Line, error) {
	lines, err := generateLoadValue(cc, q.Src, A)
	if err != nil {
		return nil, err
	}

	rax := asm.Reg(A.Name(8))
	switch q.Op {
	case ir.UnCopy:
	case ir.UnNeg:
		lines = append(lines, asm.Op1("negq", rax))
	case ir.UnNot:
		lines = append(lines, asm.Op2("xorq", asm.Imm(1), rax))
	default:
		return nil, fmt.Errorf("unary operator %s: %w", q.Op, common.ErrUnimplemented)
	}

	store, err := generateStoreValue(cc, q.Dst, A)
	if err != nil {
		return nil, err
	}
	return append(lines, store...), nil
}

// stackArgs returns how many of proc's arguments are passed on the stack.
func stackArgs(proc *ir.Procedure) int {
	return max(0, len(proc.Formals)-FUNC_CALL_REGISTERS)
}

func generateCall(q *ir.Call) []asm.Line {
	lines := []asm.Line{asm.Op1("callq", asm.Ref(q.Callee.Name))}
	if n := stackArgs(q.Callee); n > 0 {
		lines = append(lines, asm.Op2("addq", asm.Imm(int64(n*WORD_SIZE)), asm.Reg("rsp")))
	}
	return lines
}

func generateSetArg(cc *CodegenContext, q *ir.SetArg) ([]asm.Line, error) {
	if q.Index < 1 {
		return nil, fmt.Errorf("invalid argument position %d", q.Index)
	}
	if reg, ok := ArgRegister(q.Index); ok {
		return generateLoadValue(cc, q.Opd, reg)
	}
	lines, err := generateLoadValue(cc, q.Opd, Scratch)
	if err != nil {
		return nil, err
	}
	return append(lines, asm.Op1("pushq", asm.Reg(Scratch.Name(8)))), nil
}

// generateEnter emits the prologue and moves every incoming argument into
// its formal's slot.
//
// Stack layout after the prologue, from high to low addresses:
//
//	... [arg 7] ... [arg n] [return address] [saved rbp] [slots] ...
//	                        ^rbp points here
//
// The caller pushes arguments 7..n in that order, so arg p sits at
// rbp+8*(n-p+1).
func generateEnter(cc *CodegenContext, q *ir.Enter) ([]asm.Line, error) {
	lines := []asm.Line{
		asm.Op1("pushq", asm.Reg("rbp")),
		asm.Op2("movq", asm.Reg("rsp"), asm.Reg("rbp")),
		asm.Op2("addq", asm.Imm(prologueDisplacement), asm.Reg("rbp")),
	}
	if size := activationSize(cc); size > 0 {
		lines = append(lines, asm.Op2("subq", asm.Imm(int64(size)), asm.Reg("rsp")))
	}

	n := len(q.Proc.Formals)
	for i, formal := range q.Proc.Formals {
		pos := i + 1
		reg, ok := ArgRegister(pos)
		if !ok {
			lines = append(lines, asm.Op2("movq", asm.Deref("rbp", WORD_SIZE*(n-pos+1)), asm.Reg(Scratch.Name(8))))
			reg = Scratch
		}
		store, err := generateStoreValue(cc, formal, reg)
		if err != nil {
			return nil, fmt.Errorf("formal %s: %w", formal, err)
		}
		lines = append(lines, store...)
	}
	return lines, nil
}

// activationSize is the number of bytes the prologue reserves. The frame is
// a multiple of 16, which keeps %rsp aligned at calls when the procedure is
// entered through a plain callq. An odd number of stack arguments leaves
// the caller's %rsp one word off, so the callee reserves an extra word.
func activationSize(cc *CodegenContext) int {
	if stackArgs(cc.frame.Proc)%2 == 1 {
		return cc.frame.Size + WORD_SIZE
	}
	return cc.frame.Size
}

func generateLeave(cc *CodegenContext) []asm.Line {
	var lines []asm.Line
	if size := activationSize(cc); size > 0 {
		lines = append(lines, asm.Op2("addq", asm.Imm(int64(size)), asm.Reg("rsp")))
	}
	return append(lines,
		asm.Op1("popq", asm.Reg("rbp")),
		asm.Op0("retq"))
}

func outputRoutine(opd ir.Operand) string {
	if opd.Kind() == ir.KindString {
		return printStringRoutine
	}
	switch opd.Width() {
	case 8:
		return printIntRoutine
	case 1:
		return printByteRoutine
	default:
		return printStringRoutine
	}
}

func inputRoutine(opd ir.Operand) string {
	if opd.Kind() == ir.KindString {
		return readStringRoutine
	}
	switch opd.Width() {
	case 8:
		return readIntRoutine
	case 1:
		return readByteRoutine
	default:
		return readStringRoutine
	}
}
