package coverage

import (
	"fmt"
	"math"
)

// SquareInchesPerMM2 converts coverage areas reported in mm² to in².
const SquareInchesPerMM2 = 0.00155

// SquareInches converts an area in square millimetres to square inches.
func SquareInches(mm2 float64) float64 {
	return mm2 * SquareInchesPerMM2
}

// HexFromRGB renders sRGB components in the 0..1 range as #rrggbb.
// Out-of-range components are clamped.
func HexFromRGB(r, g, b float64) string {
	return fmt.Sprintf("#%02x%02x%02x", channelByte(r), channelByte(g), channelByte(b))
}

func channelByte(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	n := int(math.Floor(0.5 + v*255))
	return max(0, min(255, n))
}
