package x86_64

import "fmt"

// Register designates a 64-bit general purpose register. Its low byte is
// used for 1-byte stores.
type Register int

const (
	A Register = iota
	B
	C
	D
	DI
	SI
	E
	F
	// Reserved for the back end's own use: stack-passed arguments and
	// stores through a pointer.
	Scratch
)

// Every register the back end writes is caller-saved under System V, so
// nothing has to be preserved for C callers such as the runtime's startup.
var registerNames = [...]struct{ full, low string }{
	A:       {"rax", "al"},
	B:       {"r10", "r10b"},
	C:       {"rcx", "cl"},
	D:       {"rdx", "dl"},
	DI:      {"rdi", "dil"},
	SI:      {"rsi", "sil"},
	E:       {"r8", "r8b"},
	F:       {"r9", "r9b"},
	Scratch: {"r11", "r11b"},
}

// Name returns the register's name for an access of the given width.
func (r Register) Name(width int) string {
	if r < 0 || int(r) >= len(registerNames) {
		panic(fmt.Errorf("invalid register %d", int(r)))
	}
	if width == 1 {
		return registerNames[r].low
	}
	return registerNames[r].full
}

func (r Register) String() string {
	return r.Name(8)
}

const (
	FUNC_CALL_REGISTERS = 6
	WORD_SIZE           = 8
)

// Argument position (1-based) to register. This is the back end's own
// convention, shared by SetArg on the caller side and Enter on the callee
// side; it is not the System V order.
var argRegisters = [FUNC_CALL_REGISTERS]Register{DI, A, D, C, E, F}

// ArgRegister returns the register carrying argument position pos, or false
// if the argument goes on the stack.
func ArgRegister(pos int) (Register, bool) {
	if pos < 1 || pos > FUNC_CALL_REGISTERS {
		return 0, false
	}
	return argRegisters[pos-1], true
}

// Register of the value returned by procedures and input intrinsics.
const ReturnRegister = A
