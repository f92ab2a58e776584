//go:build rp2040

package pio

// RP2040/RP2350 have 2 PIO blocks with 4 state machines each
var pioAllocations = [2][4]bool{} // [pioNum][smNum]

// allocate reserves the first free state machine
func allocate() (pioNum, smNum uint8, ok bool) {
	for p := uint8(0); p < 2; p++ {
		for s := uint8(0); s < 4; s++ {
			if !pioAllocations[p][s] {
				pioAllocations[p][s] = true
				return p, s, true
			}
		}
	}
	return 0, 0, false
}

func release(pioNum, smNum uint8) {
	pioAllocations[pioNum][smNum] = false
}

// AllocationStatus returns PIO allocation status for debugging
func AllocationStatus() [2][4]bool {
	return pioAllocations
}
