package insts

import "fmt"

// Cond represents one of the 32 architectural condition codes. Codes 0-15
// test ASTAT.R, codes 16-31 test ASTAT.C.
type Cond uint8

// Condition codes on the real flag bank.
const (
	CondEQ    Cond = iota // AZ
	CondNE                // !AZ
	CondGT                // !((AN ^ AV) | AZ)
	CondLE                // (AN ^ AV) | AZ
	CondLT                // AN ^ AV
	CondGE                // !(AN ^ AV)
	CondAV                // AV
	CondNotAV             // !AV
	CondAC                // AC
	CondNotAC             // !AC
	CondSV                // SV
	CondNotSV             // !SV
	CondMV                // MV
	CondNotMV             // !MV
	CondNotCE             // CNTR > 1
	CondTRUE              // always
)

// Condition codes on the combined complex flag bank.
const (
	CondEQC Cond = iota + 16
	CondNEC
	CondGTC
	CondLEC
	CondLTC
	CondGEC
	CondAVC
	CondNotAVC
	CondACC
	CondNotACC
	CondSVC
	CondNotSVC
	CondMVC
	CondNotMVC
	CondUMC
	CondNotUMC

	// NumConds is the number of condition codes.
	NumConds = 32
)

var condNames = [NumConds]string{
	"EQ", "NE", "GT", "LE", "LT", "GE", "AV", "NOT AV",
	"AC", "NOT AC", "SV", "NOT SV", "MV", "NOT MV", "NOT CE", "TRUE",
	"EQ.C", "NE.C", "GT.C", "LE.C", "LT.C", "GE.C", "AV.C", "NOT AV.C",
	"AC.C", "NOT AC.C", "SV.C", "NOT SV.C", "MV.C", "NOT MV.C", "UM.C", "NOT UM.C",
}

// String returns the assembler spelling of c.
func (c Cond) String() string {
	if c < NumConds {
		return condNames[c]
	}
	return fmt.Sprintf("Cond(%d)", uint8(c))
}

// Valid reports whether c is one of the 32 defined codes.
func (c Cond) Valid() bool { return c < NumConds }

// Complex reports whether c tests the combined complex flag bank.
func (c Cond) Complex() bool { return c >= 16 && c < NumConds }

// LookupCond resolves a condition spelling such as "GT" or "NOT AV.C".
func LookupCond(name string) (Cond, bool) {
	for i, n := range condNames {
		if n == name {
			return Cond(i), true
		}
	}
	return 0, false
}
