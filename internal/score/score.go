// Package score ranks candidate plaintexts by how closely they resemble English.
package score

import (
	"math"
	"unicode"
	"unicode/utf8"
)

// English letter frequencies A-Z.
var letterFreq = [26]float64{
	0.08167, 0.01492, 0.02782, 0.04253, 0.12702, 0.02228, 0.02015,
	0.06094, 0.06966, 0.00153, 0.00772, 0.04025, 0.02406, 0.06749,
	0.07507, 0.01929, 0.00095, 0.05987, 0.06327, 0.09056, 0.02758,
	0.00978, 0.02360, 0.00150, 0.01974, 0.00074,
}

// spaceFreq is the share of spaces among letters and spaces in running English text.
const spaceFreq = 0.13

// Score is the result of ChiSquared. Lower Weighted values look more like English.
type Score struct {
	Chi            float64
	Unprintable    int
	OtherPrintable int
}

// Weighted penalises text that is heavy on digits, punctuation and other non-letters.
func (s Score) Weighted() float64 { return s.Chi * float64(1+s.OtherPrintable) }

// ChiSquared scores text against English letter and space frequencies. It returns false
// for invalid UTF-8, which no English candidate can be. Letters are case-folded; tab,
// newline and carriage return are neutral; other control characters count as unprintable.
// Text with no letters or spaces scores +Inf.
func ChiSquared(text []byte) (Score, bool) {
	if !utf8.Valid(text) {
		return Score{}, false
	}
	var (
		s       Score
		letters [26]int
		spaces  int
	)
	for _, r := range string(text) {
		switch {
		case r >= 'a' && r <= 'z':
			letters[r-'a']++
		case r >= 'A' && r <= 'Z':
			letters[r-'A']++
		case r == ' ':
			spaces++
		case r == '\t' || r == '\n' || r == '\r':
		case unicode.IsControl(r):
			s.Unprintable++
		default:
			s.OtherPrintable++
		}
	}
	total := spaces
	for _, n := range letters {
		total += n
	}
	if total == 0 {
		s.Chi = math.Inf(1)
		return s, true
	}
	chi := term(float64(spaces), spaceFreq*float64(total))
	for i, n := range letters {
		chi += term(float64(n), letterFreq[i]*(1-spaceFreq)*float64(total))
	}
	s.Chi = chi
	return s, true
}

func term(observed, expected float64) float64 {
	d := observed - expected
	return d * d / expected
}
