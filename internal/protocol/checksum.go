package protocol

import "fmt"

// ChecksumMask keeps checksums within the 7-bit range allowed inside sysex.
const ChecksumMask = 0x7F

// Checksum computes the frame checksum: the running XOR of every byte,
// masked to 7 bits.
func Checksum(data []byte) byte {
	var x byte
	for _, b := range data {
		x ^= b
	}
	return x & ChecksumMask
}

// ChecksumValues computes the same checksum over integer values, as typed by a
// user or read from a configuration file. Every value must fit in a byte.
func ChecksumValues(values []int) (byte, error) {
	data := make([]byte, len(values))
	for i, v := range values {
		b, err := ToByte(v)
		if err != nil {
			return 0, fmt.Errorf("checksum input %d: %w", i, err)
		}
		data[i] = b
	}
	return Checksum(data), nil
}

// ToByte converts an integer to a byte, failing if it is outside 0-255.
func ToByte(v int) (byte, error) {
	if v < 0 || v > 0xFF {
		return 0, NewInvalidChecksumInputError(v)
	}
	return byte(v), nil
}
