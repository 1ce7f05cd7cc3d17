package layout_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iley/quadc/internal/codegen/common"
	"github.com/iley/quadc/internal/codegen/layout"
	"github.com/iley/quadc/internal/ir"
)

var _ = Describe("AssignGlobals", func() {
	var prog *ir.Program

	BeforeEach(func() {
		prog = &ir.Program{}
	})

	It("should label globals after their symbol names", func() {
		a := prog.AddGlobal("a", 8, ir.KindInt)
		b := prog.AddGlobal("b", 1, ir.KindBool)

		g, err := layout.AssignGlobals(prog)

		Expect(err).NotTo(HaveOccurred())
		Expect(g.Vars).To(Equal([]layout.GlobalVar{
			{Opd: a, Label: "glb_a"},
			{Opd: b, Label: "glb_b"},
		}))

		locA, err := layout.Locator{Globals: g}.Locate(a)
		Expect(err).NotTo(HaveOccurred())
		locB, err := layout.Locator{Globals: g}.Locate(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(locA.IsGlobal()).To(BeTrue())
		Expect(locA).NotTo(Equal(locB))
	})

	It("should reject two globals with the same name", func() {
		prog.AddGlobal("x", 8, ir.KindInt)
		prog.AddGlobal("x", 1, ir.KindChar)

		_, err := layout.AssignGlobals(prog)

		Expect(err).To(MatchError(common.ErrDuplicateSymbol))
	})

	It("should reject globals that are neither a byte nor a word wide", func() {
		prog.AddGlobal("a", 4, ir.KindInt)
		prog.AddGlobal("b", 8, ir.KindInt)

		_, err := layout.AssignGlobals(prog)

		Expect(err).To(MatchError(common.ErrUnimplemented))
		Expect(err).To(MatchError(ContainSubstring("global a has width 4")))
	})

	It("should give distinct strings distinct labels", func() {
		prog.AddString("hello")
		prog.AddString("world")
		prog.AddString("hello")

		g, err := layout.AssignGlobals(prog)

		Expect(err).NotTo(HaveOccurred())
		Expect(g.Strings).To(Equal([]layout.StringConst{
			{Label: "str_0", Text: "hello"},
			{Label: "str_1", Text: "world"},
		}))
		Expect(g.StringLabel("world")).To(Equal("str_1"))

		_, err = g.StringLabel("missing")
		Expect(err).To(MatchError(common.ErrUnresolvedLocation))
	})

	It("should produce the same layout when run twice", func() {
		prog.AddGlobal("a", 8, ir.KindInt)
		prog.AddString("s")

		first, err := layout.AssignGlobals(prog)
		Expect(err).NotTo(HaveOccurred())
		second, err := layout.AssignGlobals(prog)
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(Equal(first))
	})
})

var _ = Describe("AssignFrame", func() {
	var proc *ir.Procedure

	BeforeEach(func() {
		proc = ir.NewProcedure("f")
	})

	It("should assign temps, locals, formals and addrs in order", func() {
		formal := proc.AddFormal("n", 8, ir.KindInt)
		local := proc.AddLocal("x", 1, ir.KindChar)
		tmp := proc.NewTemp(8, ir.KindInt)
		addr := proc.NewAddr(8, ir.KindInt)

		f, err := layout.AssignFrame(proc)

		Expect(err).NotTo(HaveOccurred())
		Expect(f.Slots).To(Equal([]layout.Slot{
			{Opd: tmp, Role: layout.RoleTemp, Offset: -16},
			{Opd: local, Role: layout.RoleLocal, Offset: -24},
			{Opd: formal, Role: layout.RoleFormal, Offset: -32},
			{Opd: addr, Role: layout.RoleAddr, Offset: -40},
		}))
		Expect(f.Size).To(Equal(48))
	})

	It("should keep offsets pairwise distinct and decreasing", func() {
		for i := 0; i < 5; i++ {
			proc.NewTemp(8, ir.KindInt)
			proc.NewAddr(1, ir.KindBool)
		}
		proc.AddLocal("a", 8, ir.KindInt)
		proc.AddFormal("b", 1, ir.KindBool)

		f, err := layout.AssignFrame(proc)

		Expect(err).NotTo(HaveOccurred())
		Expect(f.Slots).To(HaveLen(12))
		for i := 1; i < len(f.Slots); i++ {
			Expect(f.Slots[i].Offset).To(BeNumerically("<", f.Slots[i-1].Offset))
		}
		Expect(f.Size % layout.FrameAlignment).To(BeZero())
		Expect(f.Size).To(BeNumerically(">=", -f.Slots[11].Offset))
	})

	It("should give an empty procedure an empty frame", func() {
		f, err := layout.AssignFrame(proc)

		Expect(err).NotTo(HaveOccurred())
		Expect(f.Slots).To(BeEmpty())
		Expect(f.Size).To(BeZero())
	})

	It("should round the frame up to the alignment", func() {
		proc.AddLocal("x", 8, ir.KindInt)

		f, err := layout.AssignFrame(proc)

		Expect(err).NotTo(HaveOccurred())
		Expect(f.Size).To(Equal(16))
	})

	It("should reject slots that are neither a byte nor a word wide", func() {
		proc.AddLocal("x", 8, ir.KindInt)
		proc.NewAddr(2, ir.KindInt)

		_, err := layout.AssignFrame(proc)

		Expect(err).To(MatchError(common.ErrUnimplemented))
	})

	It("should reject an operand listed twice", func() {
		x := proc.AddLocal("x", 8, ir.KindInt)
		proc.Formals = append(proc.Formals, x)

		_, err := layout.AssignFrame(proc)

		Expect(err).To(MatchError(common.ErrDuplicateSymbol))
	})
})

var _ = Describe("Locator", func() {
	It("should prefer frame slots and fail for unknown operands", func() {
		prog := &ir.Program{}
		glob := prog.AddGlobal("g", 8, ir.KindInt)
		proc := prog.AddProcedure("main")
		x := proc.AddLocal("x", 8, ir.KindInt)
		stranger := ir.NewSymOperand("stranger", 8, ir.KindInt)

		g, err := layout.AssignGlobals(prog)
		Expect(err).NotTo(HaveOccurred())
		f, err := layout.AssignFrame(proc)
		Expect(err).NotTo(HaveOccurred())
		loc := layout.Locator{Globals: g, Frame: f}

		Expect(loc.Locate(x)).To(Equal(layout.Location{Offset: -16}))
		Expect(loc.Locate(glob)).To(Equal(layout.Location{Label: "glb_g"}))
		_, err = loc.Locate(stranger)
		Expect(err).To(MatchError(common.ErrUnresolvedLocation))
	})
})

var _ = Describe("WriteReport", func() {
	It("should list every data label and frame slot", func() {
		prog := &ir.Program{}
		prog.AddGlobal("counter", 8, ir.KindInt)
		prog.AddString("hi")
		proc := prog.AddProcedure("main")
		proc.AddLocal("x", 8, ir.KindInt)

		g, err := layout.AssignGlobals(prog)
		Expect(err).NotTo(HaveOccurred())
		f, err := layout.AssignFrame(proc)
		Expect(err).NotTo(HaveOccurred())

		var out bytes.Buffer
		layout.WriteReport(&out, g, []*layout.Frame{f})

		Expect(out.String()).To(ContainSubstring("glb_counter"))
		Expect(out.String()).To(ContainSubstring("str_0"))
		Expect(out.String()).To(ContainSubstring("Frame main"))
		Expect(out.String()).To(ContainSubstring("-16"))
	})
})
