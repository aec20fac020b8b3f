package vm

import (
	"fmt"
	"sort"
	"strconv"

	"n2t-go/pkg/asm"
)

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a 'vm.Program' (one or more parsed modules) and produces its flat
// 'asm.Program' counterpart, implementing the full calling convention: segment access for
// all eight memory segments, the nine arithmetic/logic operations, branching and the
// call/function/return sequence.
//
// A single Lowerer instance is shared across every module in a Program so that comparison
// labels and call return-addresses stay unique program-wide, not just per file.
type Lowerer struct {
	nComparison uint64 // Monotonic counter backing unique eq/gt/lt labels
	nCall       uint64 // Monotonic counter backing unique call return-address labels

	module   string // Name of the module/file currently being lowered (drives 'static' scoping)
	function string // Name of the function currently being lowered (drives label scoping)
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
func NewLowerer() *Lowerer {
	return &Lowerer{}
}

// Lower converts an entire 'vm.Program' (every module of it) to a flat 'asm.Program'.
// Modules are visited in lexicographic order by name so that, given the same input, the
// same deterministic instruction stream (and the same comparison/call label numbering)
// is produced every time. When 'bootstrap' is true a 'SP=256; call Sys.init 0' prelude is
// emitted first, using the exact same call-sequence generator as any other 'call'.
func (l *Lowerer) Lower(program Program, bootstrap bool) (asm.Program, error) {
	out := asm.Program{}

	if bootstrap {
		out = append(out, asm.AInstruction{Location: "256"})
		out = append(out, asm.CInstruction{Dest: "D", Comp: "A"})
		out = append(out, asm.AInstruction{Location: "SP"})
		out = append(out, asm.CInstruction{Dest: "M", Comp: "D"})

		l.module, l.function = "Bootstrap", ""
		call, err := l.lowerCall(FuncCallOp{Name: "Sys.init", NArgs: 0})
		if err != nil {
			return nil, fmt.Errorf("failed to emit bootstrap sequence: %w", err)
		}
		out = append(out, call...)
	}

	names := make([]string, 0, len(program))
	for name := range program {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		l.module, l.function = name, ""
		lowered, err := l.LowerModule(program[name])
		if err != nil {
			return nil, fmt.Errorf("failed to lower module '%s': %w", name, err)
		}
		out = append(out, lowered...)
	}

	return out, nil
}

// LowerModule converts a single 'vm.Module' to its 'asm.Instruction' sequence. The
// caller must set 'l.module' (used for file-scoped 'static' variables) before calling.
func (l *Lowerer) LowerModule(module Module) (asm.Program, error) {
	out := asm.Program{}

	for _, operation := range module {
		var lowered []asm.Instruction
		var err error

		switch op := operation.(type) {
		case MemoryOp:
			lowered, err = l.lowerMemoryOp(op)
		case ArithmeticOp:
			lowered, err = l.lowerArithmeticOp(op)
		case LabelDecl:
			lowered, err = l.lowerLabelDecl(op)
		case GotoOp:
			lowered, err = l.lowerGotoOp(op)
		case FuncDecl:
			lowered, err = l.lowerFuncDecl(op)
		case FuncCallOp:
			lowered, err = l.lowerCall(op)
		case ReturnOp:
			lowered, err = l.lowerReturn(op)
		default:
			err = fmt.Errorf("unrecognized operation '%T'", operation)
		}

		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}

	return out, nil
}

// ----------------------------------------------------------------------------
// Shared helpers

// pushD emits the instructions that push the current value of the D register onto the
// stack and advance the stack pointer. Every 'push' variant funnels through this once it
// has loaded the segment's value into D.
func pushD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// popD emits the instructions that decrement the stack pointer and load the popped value
// into the D register, leaving A pointed at the freed stack slot.
func popD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
	}
}

// segmentPointer maps the four pointer-relative segments to the Hack built-in register
// that holds their base address.
var segmentPointer = map[SegmentType]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

// ----------------------------------------------------------------------------
// Memory Op

func (l *Lowerer) lowerMemoryOp(op MemoryOp) ([]asm.Instruction, error) {
	switch op.Segment {
	case Pointer:
		if op.Offset > 1 {
			return nil, fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
		}
		reg := "THIS"
		if op.Offset == 1 {
			reg = "THAT"
		}
		return l.memoryOpOnLocation(op.Operation, asm.AInstruction{Location: reg})

	case Temp:
		if op.Offset > 7 {
			return nil, fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
		}
		return l.memoryOpOnLocation(op.Operation, asm.AInstruction{Location: strconv.Itoa(5 + int(op.Offset))})

	case Static:
		name := fmt.Sprintf("%s.%d", l.module, op.Offset)
		return l.memoryOpOnLocation(op.Operation, asm.AInstruction{Location: name})

	case Constant:
		if op.Operation == Pop {
			return nil, fmt.Errorf("cannot pop into the read-only 'constant' segment")
		}
		return []asm.Instruction{
			asm.AInstruction{Location: strconv.Itoa(int(op.Offset))},
			asm.CInstruction{Dest: "D", Comp: "A"},
		}, nil

	case Local, Argument, This, That:
		return l.memoryOpOnSegment(op.Operation, segmentPointer[op.Segment], op.Offset)

	default:
		return nil, fmt.Errorf("unrecognized segment '%s'", op.Segment)
	}
}

// memoryOpOnLocation handles push/pop for segments addressed by a single fixed Hack
// location (pointer/temp/static): no effective-address arithmetic is needed, so push just
// reads the location into D and pop just writes D back to it.
func (l *Lowerer) memoryOpOnLocation(operation OperationType, location asm.AInstruction) ([]asm.Instruction, error) {
	switch operation {
	case Push:
		return append([]asm.Instruction{location, asm.CInstruction{Dest: "D", Comp: "M"}}, pushD()...), nil
	case Pop:
		return append(popD(), location, asm.CInstruction{Dest: "M", Comp: "D"}), nil
	default:
		return nil, fmt.Errorf("unrecognized OperationType '%s'", operation)
	}
}

// memoryOpOnSegment handles push/pop for the four pointer-relative segments
// (local/argument/this/that), whose effective address is 'base + offset'. 'pop' stages the
// computed address in R13 before popping, since computing 'base+offset' a second time
// after the stack pointer has moved would require D to hold two different things at once.
func (l *Lowerer) memoryOpOnSegment(operation OperationType, base string, offset uint16) ([]asm.Instruction, error) {
	switch operation {
	case Push:
		return []asm.Instruction{
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: strconv.Itoa(int(offset))},
			asm.CInstruction{Dest: "A", Comp: "D+A"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "M", Comp: "M+1"},
		}, nil

	case Pop:
		return []asm.Instruction{
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: strconv.Itoa(int(offset))},
			asm.CInstruction{Dest: "D", Comp: "D+A"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "M", Comp: "D"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}, nil

	default:
		return nil, fmt.Errorf("unrecognized OperationType '%s'", operation)
	}
}

// ----------------------------------------------------------------------------
// Arithmetic Op

func (l *Lowerer) lowerArithmeticOp(op ArithmeticOp) ([]asm.Instruction, error) {
	switch op.Operation {
	case Neg:
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: "-M"},
		}, nil
	case Not:
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: "!M"},
		}, nil

	case Add, Sub, And, Or:
		comp := map[ArithOpType]string{Add: "D+M", Sub: "M-D", And: "D&M", Or: "D|M"}[op.Operation]
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "A", Comp: "A-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil

	case Eq, Gt, Lt:
		return l.lowerComparison(op.Operation)

	default:
		return nil, fmt.Errorf("unrecognized ArithOpType '%s'", op.Operation)
	}
}

// lowerComparison emits the shared skeleton for eq/gt/lt: subtract, jump to a 'true'
// branch on the matching Hack jump mnemonic, otherwise fall through writing false (0),
// the true branch writes true (-1). Each call gets fresh, globally unique labels so two
// comparisons of the same kind anywhere in the program never collide.
func (l *Lowerer) lowerComparison(op ArithOpType) ([]asm.Instruction, error) {
	jump := map[ArithOpType]string{Eq: "JEQ", Gt: "JGT", Lt: "JLT"}[op]

	l.nComparison++
	trueLabel := fmt.Sprintf("COMPARE.%s.TRUE.%d", op, l.nComparison)
	endLabel := fmt.Sprintf("COMPARE.%s.END.%d", op, l.nComparison)

	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: trueLabel},
		asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: endLabel},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: trueLabel},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "-1"},
		asm.LabelDecl{Name: endLabel},
	}, nil
}

// ----------------------------------------------------------------------------
// Label / Goto Ops

// scopedLabel prefixes a user-given label with the enclosing function's name, per the
// calling convention: two functions in the same file are free to reuse label names.
func (l *Lowerer) scopedLabel(name string) string {
	if l.function == "" {
		return name
	}
	return fmt.Sprintf("%s$%s", l.function, name)
}

func (l *Lowerer) lowerLabelDecl(op LabelDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to produce empty label declaration")
	}
	return []asm.Instruction{asm.LabelDecl{Name: l.scopedLabel(op.Name)}}, nil
}

func (l *Lowerer) lowerGotoOp(op GotoOp) ([]asm.Instruction, error) {
	if op.Label == "" {
		return nil, fmt.Errorf("unable to produce empty jump label")
	}
	label := l.scopedLabel(op.Label)

	switch op.Jump {
	case Unconditional:
		return []asm.Instruction{
			asm.AInstruction{Location: label},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil

	case Conditional:
		// The resolved bug: 'if-goto' jumps when the popped value is non-zero (true in the
		// Jack/VM boolean convention, where 'true' is represented as -1, all ones), so the
		// comparison against zero must use JNE, not JGT (which misses a popped -1/true).
		return append(popD(), asm.AInstruction{Location: label}, asm.CInstruction{Comp: "D", Jump: "JNE"}), nil

	default:
		return nil, fmt.Errorf("unrecognized JumpType '%s'", op.Jump)
	}
}

// ----------------------------------------------------------------------------
// Function / Call / Return Ops

func (l *Lowerer) lowerFuncDecl(op FuncDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to produce empty function declaration")
	}
	l.function = op.Name

	out := []asm.Instruction{asm.LabelDecl{Name: op.Name}}
	// The callee, not the caller, zero-initializes its own locals: push 'NLocal' zeroes.
	for i := uint8(0); i < op.NLocal; i++ {
		out = append(out, asm.CInstruction{Dest: "D", Comp: "0"})
		out = append(out, pushD()...)
	}
	return out, nil
}

func (l *Lowerer) lowerCall(op FuncCallOp) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to produce empty function call")
	}

	l.nCall++
	returnLabel := fmt.Sprintf("%s$ret.%d", op.Name, l.nCall)

	out := []asm.Instruction{
		// Push the return address, then the caller's frame (LCL/ARG/THIS/THAT), so the
		// callee's 'return' can restore it without the caller doing anything further.
		asm.AInstruction{Location: returnLabel},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}
	out = append(out, pushD()...)
	for _, segment := range []string{"LCL", "ARG", "THIS", "THAT"} {
		out = append(out, asm.AInstruction{Location: segment}, asm.CInstruction{Dest: "D", Comp: "M"})
		out = append(out, pushD()...)
	}

	out = append(out,
		// ARG = SP - NArgs - 5 (the 5 pushed frame slots above), so the callee sees its
		// arguments at the bottom of what it thinks is its own stack.
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: strconv.Itoa(int(op.NArgs) + 5)},
		asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// LCL = SP, the callee's locals start wherever the stack is right now.
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: op.Name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: returnLabel},
	)

	return out, nil
}

func (l *Lowerer) lowerReturn(ReturnOp) ([]asm.Instruction, error) {
	return []asm.Instruction{
		// R13 = endFrame = LCL (a temporary, since LCL/ARG are about to be overwritten).
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// R14 = retAddr = *(endFrame - 5), saved before '*ARG = pop()' can clobber it (a
		// zero-argument callee's ARG frame sits exactly where the return address is).
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// *ARG = pop(), the caller finds its single return value where it expects it.
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// SP = ARG + 1, collapsing the callee's whole frame off the stack.
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// Restore THAT/THIS/ARG/LCL from endFrame-1..endFrame-4, walking R13 down.
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THAT"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THIS"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// Jump to the saved return address.
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}, nil
}
