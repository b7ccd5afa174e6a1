package spectrum

import "strconv"

// MaxIntensity is the largest value a two-digit field can carry.
const MaxIntensity = 99

// silentMessage is sent for a chunk whose spectrum is entirely zero. Its
// width is fixed by the controller firmware, not by the band count.
var silentMessage = []byte("{00000000}")

// SilentMessage returns a fresh copy of the all-zero frame.
func SilentMessage() []byte {
	msg := make([]byte, len(silentMessage))
	copy(msg, silentMessage)
	return msg
}

// IsSilent reports whether msg is the fixed all-zero frame.
func IsSilent(msg []byte) bool {
	return string(msg) == string(silentMessage)
}

// Encode renders intensities as '{' + two zero-padded digits per band + '}'.
// Values are clamped to [0, MaxIntensity] so every field is exactly two digits.
func Encode(intensities []int) []byte {
	msg := make([]byte, 0, 2+2*len(intensities))
	msg = append(msg, '{')
	for _, v := range intensities {
		v = clampIntensity(v)
		if v < 10 {
			msg = append(msg, '0')
		}
		msg = strconv.AppendInt(msg, int64(v), 10)
	}
	return append(msg, '}')
}

// Decode parses a message produced by Encode. It is used by tests and by the
// --dry-run console sink to print human readable values.
func Decode(msg []byte) ([]int, bool) {
	if len(msg) < 2 || msg[0] != '{' || msg[len(msg)-1] != '}' || len(msg)%2 != 0 {
		return nil, false
	}
	body := msg[1 : len(msg)-1]
	values := make([]int, 0, len(body)/2)
	for i := 0; i < len(body); i += 2 {
		d1, d2 := body[i]-'0', body[i+1]-'0'
		if d1 > 9 || d2 > 9 {
			return nil, false
		}
		values = append(values, int(d1)*10+int(d2))
	}
	return values, true
}

func clampIntensity(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxIntensity {
		return MaxIntensity
	}
	return v
}
