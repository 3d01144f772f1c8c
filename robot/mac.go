package robot

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// NewMAC generates a random 6-byte MAC with the locally-administered/unicast
// bits set, then applies the post-filter described in the "MAC uniqueness"
// design note: avoid a leading zero in the last four hex digits when they're
// all numeric (NetsBlox leading-zero truncation), and avoid an "e" among
// three digits (accidental scientific-notation float parsing) in the last
// four hex digits.
func NewMAC() [6]byte {
	for {
		var mac [6]byte
		if _, err := rand.Read(mac[:]); err != nil {
			continue
		}
		mac[0] &^= 0b00000001
		mac[0] |= 0b00000010

		lastFour := MACToHex(mac)[8:]
		digitCount := countDigits(lastFour)

		if lastFour[0] == '0' && digitCount == 4 {
			mac[4] |= 0b00010001
		}
		if strings.ContainsRune(lastFour, 'e') && digitCount == 3 {
			mac[4] |= 0b10001000
		}

		// Setting bits in mac[4] can leave an 'e' nibble in place; draw again
		// until the final value passes the filter.
		if final := MACToHex(mac)[8:]; strings.ContainsRune(final, 'e') && countDigits(final) == 3 {
			continue
		}
		return mac
	}
}

func countDigits(s string) int {
	n := 0
	for _, c := range s {
		if c >= '0' && c <= '9' {
			n++
		}
	}
	return n
}

// MACToHex renders a MAC as a lowercase 12-character hex string — used both
// as the wire MAC and as the robot's id (object table name is "robot_"+id).
func MACToHex(mac [6]byte) string {
	return fmt.Sprintf("%02x%02x%02x%02x%02x%02x", mac[0], mac[1], mac[2], mac[3], mac[4], mac[5])
}
