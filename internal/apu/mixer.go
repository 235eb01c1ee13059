package apu

// pulseTable and tndTable are NESdev's precomputed audio mixer lookup
// tables: because every channel output is a small integer (0-15), the
// non-linear mixing curve can be computed once per possible sum instead
// of with a floating-point division on every sample.
//
// pulseTable is indexed by pulse1+pulse2 (0-30).
// tndTable is indexed by 3*triangle + 2*noise + dmc (0-202), the integer
// weighting that approximates each channel's true mixing resistor ratio.
var (
	pulseTable [31]float32
	tndTable   [203]float32
)

func init() {
	for n := range pulseTable {
		if n == 0 {
			continue
		}
		pulseTable[n] = float32(95.52 / (8128.0/float64(n) + 100.0))
	}
	for n := range tndTable {
		if n == 0 {
			continue
		}
		tndTable[n] = float32(163.67 / (24329.0/float64(n) + 100.0))
	}
}

// mix combines the five channels' 4-bit (7-bit for dmc) outputs into a
// single sample in [-1.0, 1.0] using the NESdev lookup-table mixer.
func mix(pulse1, pulse2, triangle, noise, dmc uint8) float32 {
	pulseOut := pulseTable[pulse1+pulse2]
	tndIndex := 3*uint16(triangle) + 2*uint16(noise) + uint16(dmc)
	tndOut := tndTable[tndIndex]

	return (pulseOut + tndOut) * 2.0 - 1.0
}
