package x86_64

import (
	"fmt"

	"github.com/iley/quadc/internal/asm"
	"github.com/iley/quadc/internal/codegen/common"
	"github.com/iley/quadc/internal/ir"
)

// Every non-literal operand lives in memory between quads. The functions
// below move values between an operand's location and a register.
//
// 1-byte values are zero-extended into the full register on load and
// written back from the register's low byte.

func loadOp(width int) string {
	if width == 1 {
		return "movzbq"
	}
	return "movq"
}

func storeOp(width int) string {
	if width == 1 {
		return "movb"
	}
	return "movq"
}

// memoryArg returns the memory operand addressing opd's location.
func (cc *CodegenContext) memoryArg(opd ir.Operand) (asm.Arg, error) {
	loc, err := cc.locator.Locate(opd)
	if err != nil {
		return asm.Arg{}, err
	}
	if loc.IsGlobal() {
		return asm.RipRel(loc.Label), nil
	}
	return asm.Deref("rbp", loc.Offset), nil
}

func (cc *CodegenContext) stringLiteralArg(lit *ir.LitOperand) (asm.Arg, error) {
	label, err := cc.globals.StringLabel(lit.Str)
	if err != nil {
		return asm.Arg{}, err
	}
	return asm.RipRel(label).AsAddress(), nil
}

// generateLoadValue materializes the value of opd in reg.
func generateLoadValue(cc *CodegenContext, opd ir.Operand, reg Register) ([]asm.Line, error) {
	switch o := opd.(type) {
	case *ir.SymOperand, *ir.AuxOperand:
		mem, err := cc.memoryArg(o)
		if err != nil {
			return nil, err
		}
		return []asm.Line{asm.Op2(loadOp(o.Width()), mem, asm.Reg(reg.Name(8)))}, nil
	case *ir.AddrOperand:
		slot, err := cc.memoryArg(o)
		if err != nil {
			return nil, err
		}
		return []asm.Line{
			asm.Op2("movq", slot, asm.Reg(reg.Name(8))),
			asm.Op2(loadOp(o.Width()), asm.Deref(reg.Name(8), 0), asm.Reg(reg.Name(8))),
		}, nil
	case *ir.LitOperand:
		if o.Lit == ir.LitString {
			label, err := cc.stringLiteralArg(o)
			if err != nil {
				return nil, err
			}
			return []asm.Line{asm.Op2("leaq", label, asm.Reg(reg.Name(8)))}, nil
		}
		return []asm.Line{asm.Op2("movq", asm.Imm(o.Value()), asm.Reg(reg.Name(8)))}, nil
	default:
		return nil, fmt.Errorf("load of %s (%T): %w", opd, opd, common.ErrUnimplemented)
	}
}

// generateStoreValue writes reg into opd. For address-valued operands the
// value goes to the pointee, not the pointer slot.
func generateStoreValue(cc *CodegenContext, opd ir.Operand, reg Register) ([]asm.Line, error) {
	switch o := opd.(type) {
	case *ir.SymOperand, *ir.AuxOperand:
		mem, err := cc.memoryArg(o)
		if err != nil {
			return nil, err
		}
		return []asm.Line{asm.Op2(storeOp(o.Width()), asm.Reg(reg.Name(o.Width())), mem)}, nil
	case *ir.AddrOperand:
		if reg == Scratch {
			return nil, fmt.Errorf("store through %s from the scratch register: %w", o, common.ErrUnimplemented)
		}
		slot, err := cc.memoryArg(o)
		if err != nil {
			return nil, err
		}
		return []asm.Line{
			asm.Op2("movq", slot, asm.Reg(Scratch.Name(8))),
			asm.Op2(storeOp(o.Width()), asm.Reg(reg.Name(o.Width())), asm.Deref(Scratch.Name(8), 0)),
		}, nil
	case *ir.LitOperand:
		return nil, fmt.Errorf("store to literal %s: %w", o, common.ErrConstantWrite)
	default:
		return nil, fmt.Errorf("store to %s (%T): %w", opd, opd, common.ErrUnimplemented)
	}
}

// generateLoadAddress puts the address of opd in reg. For address-valued
// operands that is the pointer they hold.
func generateLoadAddress(cc *CodegenContext, opd ir.Operand, reg Register) ([]asm.Line, error) {
	switch o := opd.(type) {
	case *ir.SymOperand, *ir.AuxOperand:
		mem, err := cc.memoryArg(o)
		if err != nil {
			return nil, err
		}
		return []asm.Line{asm.Op2("leaq", mem.AsAddress(), asm.Reg(reg.Name(8)))}, nil
	case *ir.AddrOperand:
		slot, err := cc.memoryArg(o)
		if err != nil {
			return nil, err
		}
		return []asm.Line{asm.Op2("movq", slot, asm.Reg(reg.Name(8)))}, nil
	case *ir.LitOperand:
		if o.Lit == ir.LitString {
			label, err := cc.stringLiteralArg(o)
			if err != nil {
				return nil, err
			}
			return []asm.Line{asm.Op2("leaq", label, asm.Reg(reg.Name(8)))}, nil
		}
		return nil, fmt.Errorf("address of literal %s: %w", o, common.ErrUnimplemented)
	default:
		return nil, fmt.Errorf("address of %s (%T): %w", opd, opd, common.ErrUnimplemented)
	}
}

// generateStoreAddress writes the address in reg into the pointer slot of an
// address-valued operand.
func generateStoreAddress(cc *CodegenContext, opd ir.Operand, reg Register) ([]asm.Line, error) {
	switch o := opd.(type) {
	case *ir.AddrOperand:
		slot, err := cc.memoryArg(o)
		if err != nil {
			return nil, err
		}
		return []asm.Line{asm.Op2("movq", asm.Reg(reg.Name(8)), slot)}, nil
	case *ir.LitOperand:
		return nil, fmt.Errorf("address store to literal %s: %w", o, common.ErrConstantWrite)
	default:
		return nil, fmt.Errorf("address store to %s, which does not hold an address: %w", opd, common.ErrUnimplemented)
	}
}
