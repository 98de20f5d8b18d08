package domain

import (
	"math"
	"unicode/utf16"
)

// seedHash is the 32-bit polynomial string hash h = 31*h + c over UTF-16 code
// units, with signed two's complement wraparound on every step.
func seedHash(seed string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(seed)) {
		h = 31*h + int32(c)
	}
	return h
}

// SeededRandom maps seed deterministically into [min, max).
func SeededRandom(seed string, min, max float64) float64 {
	t := float64(uint32(seedHash(seed))) / 0xFFFFFFFF
	return min + t*(max-min)
}

// SeededInt maps seed deterministically into the closed range [min, max].
func SeededInt(seed string, min, max int) int {
	return int(math.Floor(SeededRandom(seed, float64(min), float64(max+1))))
}

// seededChance reports whether the seeded draw for seed exceeds threshold.
func seededChance(seed string, threshold float64) bool {
	return SeededRandom(seed, 0, 1) > threshold
}

// roundTenth rounds half up to one decimal place.
func roundTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
