package emu

// MSTAT bits.
const (
	MSTATSAT    = 1 << iota // ALU saturation
	MSTATFRAC               // fractional multiply
	MSTATUNBIAS             // unbiased rounding
	MSTATBR                 // bit-reversed addressing on I0-I3
	MSTATUMA                // unaligned memory access allowed
	MSTATTEN                // timer enable
	MSTATGIE                // global interrupt enable
	MSTATSEC                // secondary register bank
)

// Mode is a decoded MSTAT value.
type Mode struct {
	Saturate      bool
	Fractional    bool
	Unbiased      bool
	BitReverse    bool
	UnalignedOK   bool
	TimerEnable   bool
	InterruptsOn  bool
	SecondaryBank bool
}

// ModeFromMSTAT decodes an MSTAT value.
func ModeFromMSTAT(v int32) Mode {
	return Mode{
		Saturate:      v&MSTATSAT != 0,
		Fractional:    v&MSTATFRAC != 0,
		Unbiased:      v&MSTATUNBIAS != 0,
		BitReverse:    v&MSTATBR != 0,
		UnalignedOK:   v&MSTATUMA != 0,
		TimerEnable:   v&MSTATTEN != 0,
		InterruptsOn:  v&MSTATGIE != 0,
		SecondaryBank: v&MSTATSEC != 0,
	}
}
