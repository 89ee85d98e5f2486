package trampoline

// OpCode enumerates the bytecode ops whose slow path reaches a PIC
// site, one per cached operation family plus the handful of structural
// ops a dispatch loop needs around them.
type OpCode byte

const (
	OpConstant OpCode = iota
	OpPop
	OpReturn

	// Property access.
	OpGetProp
	OpSetProp

	// Scope-chain name lookup.
	OpName
	OpXName
	OpBindName
	OpTypeof // marks "the following opcode is TYPEOF" for the NAME retrieval path

	// Indexed access.
	OpGetElem
	OpSetElem
)

var opNames = map[OpCode]string{
	OpConstant: "CONSTANT",
	OpPop:      "POP",
	OpReturn:   "RETURN",
	OpGetProp:  "GETPROP",
	OpSetProp:  "SETPROP",
	OpName:     "NAME",
	OpXName:    "XNAME",
	OpBindName: "BINDNAME",
	OpTypeof:   "TYPEOF",
	OpGetElem:  "GETELEM",
	OpSetElem:  "SETELEM",
}

func (op OpCode) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "UNKNOWN"
}
