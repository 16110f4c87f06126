// Package insts provides the resolved instruction descriptors consumed by the
// data-path execution core.
//
// Text decoding is done elsewhere. This package only defines the closed
// enumerations the decoder resolves operands into:
//   - Reg: register handles with width and class predicates
//   - Op: opcode identity
//   - InstType: the instruction-type tag that selects flag semantics
//   - Cond: the 32 architectural condition codes
//
// Usage:
//
//	inst := &insts.Instruction{
//		Type: insts.TypeALU,
//		Op:   insts.OpADD,
//		Dst:  insts.R(2),
//		SrcA: insts.RegOperand(insts.R(0)),
//		SrcB: insts.RegOperand(insts.R(1)),
//	}
package insts
