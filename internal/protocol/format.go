package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatFrame renders a frame as space-separated uppercase hex pairs.
func FormatFrame(frame []byte) string {
	var b strings.Builder
	for i, v := range frame {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}

// FormatFrames renders frames one per line.
func FormatFrames(frames [][]byte) string {
	lines := make([]string, len(frames))
	for i, f := range frames {
		lines[i] = FormatFrame(f)
	}
	return strings.Join(lines, "\n")
}

// ParseHexLine parses one line of hex byte pairs. Bytes may be separated by
// spaces, tabs or commas, and case is ignored.
func ParseHexLine(line string) ([]byte, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == '\r'
	})

	data := make([]byte, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimPrefix(strings.TrimPrefix(f, "0x"), "0X")
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, NewFrameFormatError(fmt.Sprintf("invalid hex byte %q", f))
		}
		data = append(data, byte(v))
	}
	return data, nil
}

// ParseDump reads a text dump with one frame per line, as produced by
// FormatFrames. Blank lines and lines starting with '#' are skipped.
func ParseDump(r io.Reader) ([][]byte, error) {
	var frames [][]byte

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		data, err := ParseHexLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		frames = append(frames, data)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}

	return frames, nil
}

// IsBinaryDump reports whether data looks like a raw .syx stream rather than
// a hex text dump.
func IsBinaryDump(data []byte) bool {
	return len(data) > 0 && data[0] == SysexStart
}
