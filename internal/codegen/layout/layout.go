// Package layout assigns a memory location to every storage-backed operand
// before any code is emitted. Globals and string constants get data section
// labels, procedure-owned operands get slots relative to %rbp.
//
// The IR is never annotated in place. Layout results live in Globals and
// Frame values that code generation only reads.
package layout

import (
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/iley/quadc/internal/codegen/common"
	"github.com/iley/quadc/internal/ir"
	"github.com/iley/quadc/internal/util"
)

const (
	// Offset of the first frame slot. The saved %rbp and the return address
	// occupy the two words above it.
	FrameBase = -16
	// Every slot is one machine word wide. Narrower values use its low bytes.
	SlotSize = 8
	// Frame sizes are kept multiples of this. The prologue pads with one
	// more word when an odd number of arguments arrive on the stack.
	FrameAlignment = 16
)

// Location is either a data section label or an offset from %rbp.
type Location struct {
	Label  string
	Offset int
}

func (l Location) IsGlobal() bool {
	return l.Label != ""
}

func (l Location) String() string {
	if l.IsGlobal() {
		return l.Label
	}
	return fmt.Sprintf("%d(%%rbp)", l.Offset)
}

type GlobalVar struct {
	Opd   *ir.SymOperand
	Label string
}

type StringConst struct {
	Label string
	Text  string
}

// Globals is the program-wide part of the layout.
type Globals struct {
	Vars    []GlobalVar
	Strings []StringConst

	locations    map[ir.Operand]Location
	stringLabels map[string]string
}

func GlobalLabel(name string) string {
	return "glb_" + name
}

func StringLabel(index int) string {
	return fmt.Sprintf("str_%d", index)
}

// AssignGlobals labels every global variable and every distinct string
// constant of p. It fails with common.ErrDuplicateSymbol when two globals
// share a name and with common.ErrUnimplemented for widths other than 1
// and 8.
func AssignGlobals(p *ir.Program) (*Globals, error) {
	dups := lo.FindDuplicatesBy(p.Globals, func(g *ir.SymOperand) string { return g.Sym.Name })
	if len(dups) > 0 {
		return nil, fmt.Errorf("global %s declared more than once: %w", dups[0].Sym.Name, common.ErrDuplicateSymbol)
	}

	g := &Globals{
		locations:    make(map[ir.Operand]Location),
		stringLabels: make(map[string]string),
	}

	for _, opd := range p.Globals {
		if !ir.SupportedWidth(opd.Width()) {
			return nil, fmt.Errorf("global %s has width %d: %w", opd.Sym.Name, opd.Width(), common.ErrUnimplemented)
		}
		label := GlobalLabel(opd.Sym.Name)
		g.locations[opd] = Location{Label: label}
		g.Vars = append(g.Vars, GlobalVar{Opd: opd, Label: label})
	}

	for _, text := range p.Strings {
		if _, seen := g.stringLabels[text]; seen {
			continue
		}
		label := StringLabel(len(g.Strings))
		g.stringLabels[text] = label
		g.Strings = append(g.Strings, StringConst{Label: label, Text: text})
	}

	slog.Debug("laid out globals", "globals", len(g.Vars), "strings", len(g.Strings))
	return g, nil
}

// StringLabel returns the label of a string constant.
func (g *Globals) StringLabel(text string) (string, error) {
	label, ok := g.stringLabels[text]
	if !ok {
		return "", fmt.Errorf("string constant %q is not in the string table: %w", text, common.ErrUnresolvedLocation)
	}
	return label, nil
}

type Role int

const (
	RoleTemp Role = iota
	RoleLocal
	RoleFormal
	RoleAddr
)

func (r Role) String() string {
	switch r {
	case RoleTemp:
		return "temp"
	case RoleLocal:
		return "local"
	case RoleFormal:
		return "formal"
	case RoleAddr:
		return "addr"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

type Slot struct {
	Opd    ir.Operand
	Role   Role
	Offset int
}

// Frame is the activation record layout of one procedure.
type Frame struct {
	Proc  *ir.Procedure
	Slots []Slot
	// Bytes reserved below the saved frame pointer.
	Size int

	offsets map[ir.Operand]int
}

// AssignFrame gives each temporary, local, formal and address-taken operand
// of proc its own slot, in that order, at strictly decreasing offsets.
func AssignFrame(proc *ir.Procedure) (*Frame, error) {
	f := &Frame{
		Proc:    proc,
		offsets: make(map[ir.Operand]int),
	}

	offset := FrameBase
	assign := func(opd ir.Operand, role Role) error {
		if !ir.SupportedWidth(opd.Width()) {
			return fmt.Errorf("%s %s of procedure %s has width %d: %w", role, opd, proc.Name, opd.Width(), common.ErrUnimplemented)
		}
		if _, seen := f.offsets[opd]; seen {
			return fmt.Errorf("%s %s of procedure %s already has a slot: %w", role, opd, proc.Name, common.ErrDuplicateSymbol)
		}
		f.offsets[opd] = offset
		f.Slots = append(f.Slots, Slot{Opd: opd, Role: role, Offset: offset})
		offset -= SlotSize
		return nil
	}

	for _, t := range proc.Temps {
		if err := assign(t, RoleTemp); err != nil {
			return nil, err
		}
	}
	for _, l := range proc.Locals {
		if err := assign(l, RoleLocal); err != nil {
			return nil, err
		}
	}
	for _, formal := range proc.Formals {
		if err := assign(formal, RoleFormal); err != nil {
			return nil, err
		}
	}
	for _, a := range proc.AddrTaken {
		if err := assign(a, RoleAddr); err != nil {
			return nil, err
		}
	}

	f.Size = frameSize(len(f.Slots))
	slog.Debug("laid out frame", "procedure", proc.Name, "slots", len(f.Slots), "size", f.Size)
	return f, nil
}

func frameSize(slots int) int {
	if slots == 0 {
		return 0
	}
	lowest := FrameBase - (slots-1)*SlotSize
	return util.Align(-lowest, FrameAlignment)
}

// Offset returns the slot offset of opd, if it belongs to the frame.
func (f *Frame) Offset(opd ir.Operand) (int, bool) {
	offset, ok := f.offsets[opd]
	return offset, ok
}

// Locator resolves operands seen while emitting one procedure.
type Locator struct {
	Globals *Globals
	Frame   *Frame
}

// Locate returns the location of a non-literal operand. Frame slots take
// precedence over globals.
func (l Locator) Locate(opd ir.Operand) (Location, error) {
	if l.Frame != nil {
		if offset, ok := l.Frame.offsets[opd]; ok {
			return Location{Offset: offset}, nil
		}
	}
	if l.Globals != nil {
		if loc, ok := l.Globals.locations[opd]; ok {
			return loc, nil
		}
	}
	return Location{}, fmt.Errorf("operand %s: %w", opd, common.ErrUnresolvedLocation)
}
