package protocol

// Display field widths used by the device
const (
	ShortNameWidth = 8
	LongNameWidth  = 24
)

// EncodeText renders s as a fixed-width ASCII field. Shorter strings are
// padded with spaces, longer ones truncated.
func EncodeText(s string, width int) []byte {
	field := make([]byte, width)
	for i := 0; i < width; i++ {
		if i < len(s) {
			field[i] = s[i]
		} else {
			field[i] = ' '
		}
	}
	return field
}

// DecodeText is the inverse of EncodeText. Padding is kept.
func DecodeText(field []byte) string {
	return string(field)
}
