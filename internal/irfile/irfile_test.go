package irfile_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/types"

	"github.com/iley/quadc/internal/codegen"
	"github.com/iley/quadc/internal/codegen/common"
	"github.com/iley/quadc/internal/codegen/x86_64"
	"github.com/iley/quadc/internal/ir"
	"github.com/iley/quadc/internal/irfile"
)

func load(text string) (*ir.Program, error) {
	return irfile.Load(strings.NewReader(text))
}

var _ = Describe("Load", func() {
	It("should build operands and quads", func() {
		prog, err := load(`
globals: [{name: g, width: 1, kind: char}]
procedures:
  - name: main
    temps: [{name: t, width: 8}]
    locals: [{name: x}]
    addrs: [{name: p, width: 1, kind: char}]
    body:
      - {op: assign, src: {int: 5}, dst: x}
      - {op: unop, operator: neg, src: x, dst: t}
      - {op: addrof, src: g, dst: p}
      - {op: assign, src: {char: A}, dst: p}
      - {op: nop}
`)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Globals).To(HaveLen(1))
		Expect(prog.Globals[0].Width()).To(Equal(1))
		Expect(prog.Globals[0].Kind()).To(Equal(ir.KindChar))

		main := prog.Procedure("main")
		Expect(main).NotTo(BeNil())
		Expect(main.Temps).To(HaveLen(1))
		Expect(main.Locals).To(HaveLen(1))
		Expect(main.Locals[0].Width()).To(Equal(ir.WordWidth))
		Expect(main.AddrTaken).To(HaveLen(1))
		Expect(main.AddrTaken[0].PointeeWidth).To(Equal(1))

		Expect(main.Body).To(HaveLen(5))
		assign, ok := main.Body[0].(*ir.Assign)
		Expect(ok).To(BeTrue())
		Expect(assign.Src).To(Equal(ir.IntLit(5)))
		Expect(assign.Dst).To(BeIdenticalTo(main.Locals[0]))

		unop := main.Body[1].(*ir.UnaryOp)
		Expect(unop.Op).To(Equal(ir.UnNeg))
		Expect(unop.Dst).To(BeIdenticalTo(main.Temps[0]))

		addrOf := main.Body[2].(*ir.AddrOf)
		Expect(addrOf.Src).To(BeIdenticalTo(prog.Globals[0]))
		Expect(addrOf.Dst).To(BeIdenticalTo(main.AddrTaken[0]))

		Expect(main.Body[3].(*ir.Assign).Src).To(Equal(ir.CharLit('A')))
		Expect(main.Body[4]).To(BeAssignableToTypeOf(&ir.Nop{}))
	})

	It("should prefer procedure operands over globals", func() {
		prog, err := load(`
globals: [{name: x}]
procedures:
  - name: main
    locals: [{name: x}]
    body:
      - {op: output, src: x}
`)
		Expect(err).NotTo(HaveOccurred())
		main := prog.Procedure("main")
		Expect(main.Body[0].(*ir.Output).Opd).To(BeIdenticalTo(main.Locals[0]))
	})

	It("should resolve forward calls and labels", func() {
		prog, err := load(`
procedures:
  - name: main
    body:
      - {op: goto, target: done}
      - {op: call, callee: helper}
      - {op: nop, labels: [done]}
  - name: helper
    exit: helper_exit
`)
		Expect(err).NotTo(HaveOccurred())
		main := prog.Procedure("main")
		helper := prog.Procedure("helper")

		jump := main.Body[0].(*ir.Goto)
		Expect(jump.Target.Quad()).To(BeIdenticalTo(main.Body[2]))
		Expect(main.Body[1].(*ir.Call).Callee).To(BeIdenticalTo(helper))
		Expect(helper.Leave.Labels()).To(HaveLen(1))
		Expect(helper.Leave.Labels()[0].Name).To(Equal("helper_exit"))
	})

	It("should add string literals to the string table once", func() {
		prog, err := load(`
strings: ["a"]
procedures:
  - name: main
    body:
      - {op: output, src: {str: "a"}}
      - {op: output, src: {str: "b"}}
      - {op: output, src: {str: "b"}}
`)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Strings).To(Equal([]string{"a", "b"}))
	})

	It("should load arguments and return values", func() {
		prog, err := load(`
procedures:
  - name: f
    formals: [{name: a}]
    locals: [{name: r}]
    body:
      - {op: getarg, index: 1, dst: a}
      - {op: setarg, index: 1, src: {bool: true}}
      - {op: getret, dst: r}
      - {op: setret, src: r}
      - {op: input, dst: r}
      - {op: mayhem, src: r}
`)
		Expect(err).NotTo(HaveOccurred())
		body := prog.Procedure("f").Body
		Expect(body[0]).To(Equal(&ir.GetArg{Index: 1, Opd: prog.Procedure("f").Formals[0]}))
		Expect(body[1]).To(Equal(&ir.SetArg{Index: 1, Opd: ir.BoolLit(true)}))
		Expect(body[2]).To(BeAssignableToTypeOf(&ir.GetRet{}))
		Expect(body[3]).To(BeAssignableToTypeOf(&ir.SetRet{}))
		Expect(body[4]).To(BeAssignableToTypeOf(&ir.Input{}))
		Expect(body[5]).To(BeAssignableToTypeOf(&ir.Mayhem{}))
	})

	It("should accept an empty file", func() {
		prog, err := load("")
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Procedures).To(BeEmpty())
	})

	DescribeTable("should reject invalid programs",
		func(text string, match types.GomegaMatcher) {
			_, err := load(text)
			Expect(err).To(match)
		},
		Entry("undefined operand", `
procedures:
  - name: main
    body: [{op: output, src: nope}]
`, MatchError(irfile.ErrUndefined)),
		Entry("undefined label", `
procedures:
  - name: main
    body: [{op: goto, target: nowhere}]
`, MatchError(irfile.ErrUndefined)),
		Entry("undefined callee", `
procedures:
  - name: main
    body: [{op: call, callee: nobody}]
`, MatchError(irfile.ErrUndefined)),
		Entry("duplicate label", `
procedures:
  - name: main
    exit: L
    body: [{op: nop, labels: [L]}]
`, MatchError(common.ErrDuplicateSymbol)),
		Entry("duplicate operand", `
procedures:
  - name: main
    locals: [{name: x}]
    formals: [{name: x}]
`, MatchError(common.ErrDuplicateSymbol)),
		Entry("duplicate procedure", `
procedures: [{name: main}, {name: main}]
`, MatchError(common.ErrDuplicateSymbol)),
		Entry("unknown op", `
procedures:
  - name: main
    body: [{op: jump}]
`, MatchError(ContainSubstring(`unknown op "jump"`))),
		Entry("unknown operator", `
procedures:
  - name: main
    locals: [{name: x}]
    body: [{op: binop, operator: pow, src: x, src2: x, dst: x}]
`, MatchError(ContainSubstring("unknown binary operator"))),
		Entry("missing operand", `
procedures:
  - name: main
    locals: [{name: x}]
    body: [{op: assign, src: x}]
`, MatchError(ContainSubstring("missing dst"))),
		Entry("literal with two values", `
procedures:
  - name: main
    body: [{op: output, src: {int: 1, bool: true}}]
`, MatchError(ContainSubstring("exactly one of"))),
		Entry("multi-byte char", `
procedures:
  - name: main
    body: [{op: output, src: {char: ab}}]
`, MatchError(ContainSubstring("single byte"))),
		Entry("unknown field", `
procedures:
  - name: main
    bogus: 1
`, MatchError(ContainSubstring("bogus"))),
		Entry("unsupported global width", `
globals: [{name: a, width: 4}, {name: b}]
`, MatchError(common.ErrUnimplemented)),
		Entry("unsupported local width", `
procedures:
  - name: main
    locals: [{name: x, width: 2}]
`, MatchError(ContainSubstring("unsupported width 2"))),
		Entry("unknown kind", `
globals: [{name: g, kind: float}]
`, MatchError(ContainSubstring("unknown value kind"))),
	)

	It("should report the procedure and quad index", func() {
		_, err := load(`
procedures:
  - name: main
    body:
      - {op: nop}
      - {op: output, src: missing}
`)
		Expect(err).To(MatchError(ContainSubstring("procedure main: quad 2 (output)")))
	})
})

var _ = Describe("LoadFile", func() {
	It("should compile the factorial program", func() {
		prog, err := irfile.LoadFile("testdata/factorial.yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Procedures).To(HaveLen(2))

		var out bytes.Buffer
		err = codegen.Generate(&out, codegen.TargetX86_64Linux, x86_64.Features{}, prog)
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(out.String(), "\n")
		Expect(lines).To(ContainElements(
			`str_0: .asciz "result: "`,
			".globl main",
			"glb_n: .quad 0",
			"fact:",
			"  je recurse",
			"recurse:",
			"  jmp fact_exit",
			"fact_exit:",
			"  callq fact",
			"  callq readInt",
			"  movq %rax, glb_n(%rip)",
			"  movq glb_n(%rip), %rdi",
			"  leaq str_0(%rip), %rdi",
			"  callq printByte",
			"  callq printInt",
		))
	})

	It("should fail on a missing file", func() {
		_, err := irfile.LoadFile("testdata/missing.yaml")
		Expect(err).To(HaveOccurred())
	})
})
