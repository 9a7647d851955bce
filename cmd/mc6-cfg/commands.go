package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/mc6sysex/internal/bank"
	"github.com/muurk/mc6sysex/internal/bankfile"
	"github.com/muurk/mc6sysex/internal/config"
	"github.com/muurk/mc6sysex/internal/logging"
	"github.com/muurk/mc6sysex/internal/protocol"
	"github.com/muurk/mc6sysex/internal/ui"
)

// Conversion command flags
var (
	outputPath   string
	binaryOutput bool
	bankNumber   int
	sendFrames   bool
	outputFormat string
	inputIsHex   bool
)

func init() {
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(functionCmd)
	rootCmd.AddCommand(checksumCmd)
}

// encodeCmd converts a YAML bank file into sysex
var encodeCmd = &cobra.Command{
	Use:   "encode <bank.yml>",
	Short: "Encode a YAML bank file into sysex",
	Long: `Encode a YAML bank description into the 18 sysex frames of a bank.

Frames are printed as hex lines on stdout unless --output is given. With
--binary the output file holds raw frames (.syx). With --send the frames
are sent to the controller over MIDI, or through a relay with --relay.

A file may hold several banks under 'banks:'; select one with --bank.`,
	Example: `  # Print frames as hex
  mc6-cfg encode live.yml

  # Write a .syx file
  mc6-cfg encode live.yml -o live.syx --binary

  # Send the second bank of a set list to the controller
  mc6-cfg encode setlist.yml --bank 2 --send

  # Send through a relay on another machine
  mc6-cfg encode live.yml --send --relay ws://10.0.0.2:8765/sysex`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write frames to a file instead of stdout")
	encodeCmd.Flags().BoolVar(&binaryOutput, "binary", false, "Write raw sysex bytes instead of hex text")
	encodeCmd.Flags().IntVarP(&bankNumber, "bank", "b", 0, "Bank to encode when the file holds several (1-based)")
	encodeCmd.Flags().BoolVarP(&sendFrames, "send", "s", false, "Send the frames to the controller")
	addSendFlags(encodeCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open bank file: %w", err)
	}
	defer f.Close()

	banks, err := bankfile.LoadAll(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	b, err := selectBank(banks, bankNumber)
	if err != nil {
		return err
	}

	frames, err := b.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode bank %q: %w", strings.TrimSpace(b.Name), err)
	}

	logging.Info("Encoded bank",
		zap.String("bank", b.Name),
		zap.Int("frames", len(frames)),
	)

	if outputPath == "" {
		ui.Output = os.Stderr
	}

	switch {
	case outputPath != "":
		if err := writeFrames(outputPath, frames, binaryOutput); err != nil {
			return err
		}
		ui.PrintSuccess("Bank encoded",
			ui.Detail{Key: "Bank", Value: strings.TrimSpace(b.Name)},
			ui.Detail{Key: "Frames", Value: strconv.Itoa(len(frames))},
			ui.Detail{Key: "Output", Value: outputPath},
		)
	case binaryOutput:
		if _, err := os.Stdout.Write(bytes.Join(frames, nil)); err != nil {
			return err
		}
	default:
		fmt.Print(protocol.FormatFrames(frames))
	}

	if sendFrames {
		return sendBank(cmd.Context(), b.Name, frames)
	}
	return nil
}

// selectBank picks the bank to encode. number is 1-based; 0 requires a single bank.
func selectBank(banks []*bank.Bank, number int) (*bank.Bank, error) {
	switch {
	case number < 0 || number > len(banks):
		return nil, fmt.Errorf("bank %d does not exist (file holds %d)", number, len(banks))
	case number > 0:
		return banks[number-1], nil
	case len(banks) > 1:
		return nil, fmt.Errorf("file holds %d banks, select one with --bank", len(banks))
	default:
		return banks[0], nil
	}
}

func writeFrames(path string, frames [][]byte, binary bool) error {
	var data []byte
	if binary {
		data = bytes.Join(frames, nil)
	} else {
		data = []byte(protocol.FormatFrames(frames))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// decodeCmd converts a sysex dump into YAML
var decodeCmd = &cobra.Command{
	Use:   "decode <dump>",
	Short: "Decode a sysex dump into YAML",
	Long: `Decode a bank dump into the YAML bank format, or a readable summary.

The dump may be hex text (one frame per line) or raw sysex bytes; the format
is detected automatically. Frames missing from the end of a dump, a trailer
checksum mismatch and similar irregularities are reported as warnings.

When the input is a directory, every .syx file in it is decoded into a .yml
file of the same name in the --output directory.`,
	Example: `  # Print a dump as YAML
  mc6-cfg decode live.syx

  # Human readable summary
  mc6-cfg decode live.txt --format summary

  # Convert a directory of dumps
  mc6-cfg decode dumps/ -o banks/`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to a file (or directory, for directory input)")
	decodeCmd.Flags().StringVar(&outputFormat, "format", "", "Output format (yaml, summary); defaults to the config file preference")
}

func runDecode(cmd *cobra.Command, args []string) error {
	format := outputFormat
	if format == "" {
		format = registry.Preferences.OutputFormat
	}
	format = strings.ToLower(format)
	if format != config.FormatYAML && format != config.FormatSummary {
		return fmt.Errorf("invalid --format %q (expected %s or %s)", format, config.FormatYAML, config.FormatSummary)
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	if info.IsDir() {
		return decodeDirectory(args[0], outputPath, format)
	}

	out, result, err := decodeFile(args[0], format)
	if err != nil {
		return err
	}
	reportWarnings(args[0], result.Warnings)

	if outputPath == "" {
		fmt.Print(string(out))
		return nil
	}
	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	ui.PrintSuccess("Bank decoded",
		ui.Detail{Key: "Bank", Value: strings.TrimSpace(result.Bank.Name)},
		ui.Detail{Key: "Output", Value: outputPath},
	)
	return nil
}

// decodeFile reads a dump and renders it in the requested format.
func decodeFile(path, format string) ([]byte, *bank.DecodeResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	frames, err := readFrames(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	result, err := bank.Decode(frames)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	if format == config.FormatSummary {
		return []byte(result.Bank.FormatDetailed()), result, nil
	}

	out, err := bankfile.Marshal(result.Bank)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, result, nil
}

// readFrames splits a binary dump or parses a hex text dump.
func readFrames(data []byte) ([][]byte, error) {
	if protocol.IsBinaryDump(data) {
		return protocol.SplitFrames(data)
	}
	return protocol.ParseDump(bytes.NewReader(data))
}

func decodeDirectory(dir, outDir, format string) error {
	if outDir == "" {
		return fmt.Errorf("input %s is a directory, --output must name a directory", dir)
	}
	info, err := os.Stat(outDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("input %s is a directory, but output %s is not", dir, outDir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	ext := ".yml"
	if format == config.FormatSummary {
		ext = ".txt"
	}

	converted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".syx") {
			continue
		}

		in := filepath.Join(dir, entry.Name())
		out, result, err := decodeFile(in, format)
		if err != nil {
			return err
		}
		reportWarnings(in, result.Warnings)

		target := filepath.Join(outDir, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))+ext)
		if err := os.WriteFile(target, out, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		converted++
	}

	ui.PrintSuccess("Dumps decoded",
		ui.Detail{Key: "Files", Value: strconv.Itoa(converted)},
		ui.Detail{Key: "Output", Value: outDir},
	)
	return nil
}

func reportWarnings(path string, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	for _, w := range warnings {
		logging.Warn("Decode warning", zap.String("file", path), zap.String("warning", w))
	}
	old := ui.Output
	ui.Output = os.Stderr
	ui.PrintWarning(path+" decoded with warnings", warnings)
	ui.Output = old
}

// functionCmd builds a device function frame
var functionCmd = &cobra.Command{
	Use:   "function <byte>...",
	Short: "Build a device function sysex frame",
	Long: `Build a single function frame for the controller.

Up to 8 data bytes are given as decimal (or hex with --hex), separated by
spaces or commas; missing bytes are zero. The frame uses device ID and
version 0 and is printed as hex.`,
	Example: `  # Function 0x10 with one argument
  mc6-cfg function 16 1

  # Same in hex, sent to the controller
  mc6-cfg function --hex 10 01 --send`,
	RunE: runFunction,
}

func init() {
	functionCmd.Flags().BoolVarP(&inputIsHex, "hex", "x", false, "Parse bytes as hex")
	functionCmd.Flags().BoolVarP(&sendFrames, "send", "s", false, "Send the frame to the controller")
	addSendFlags(functionCmd)
}

// functionDataSize is the payload length of a function frame
const functionDataSize = 8

func runFunction(cmd *cobra.Command, args []string) error {
	values, err := parseByteArgs(args, inputIsHex)
	if err != nil {
		return err
	}
	frame, err := buildFunctionFrame(values)
	if err != nil {
		return err
	}

	fmt.Println(protocol.FormatFrame(frame))

	if sendFrames {
		ui.Output = os.Stderr
		return sendBank(cmd.Context(), "", [][]byte{frame})
	}
	return nil
}

func buildFunctionFrame(values []int) ([]byte, error) {
	if len(values) > functionDataSize {
		return nil, fmt.Errorf("at most %d data bytes allowed, got %d", functionDataSize, len(values))
	}
	payload := make([]byte, functionDataSize)
	for i, v := range values {
		b, err := protocol.ToByte(v)
		if err != nil {
			return nil, fmt.Errorf("byte %d: %w", i+1, err)
		}
		payload[i] = b
	}
	return protocol.Header{}.BuildFrame(payload), nil
}

// checksumCmd prints the checksum of a header and payload
var checksumCmd = &cobra.Command{
	Use:   "checksum <hex-byte>...",
	Short: "Compute the 7-bit XOR checksum of hex bytes",
	Long: `Compute the checksum byte of a frame body: the XOR of all bytes, masked to 7 bits.

Bytes are hex, separated by spaces or commas. A function frame body is 14
bytes (6 header bytes and 8 data bytes); other lengths print a warning.`,
	Example: `  mc6-cfg checksum F0 00 21 24 00 00 10 01 00 00 00 00 00 00`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runChecksum,
}

// checksumBodySize is the body length of a function frame
const checksumBodySize = protocol.HeaderSize + functionDataSize

func runChecksum(cmd *cobra.Command, args []string) error {
	values, err := parseByteArgs(args, true)
	if err != nil {
		return err
	}
	if len(values) != checksumBodySize {
		fmt.Fprintf(os.Stderr, "Warning: expected %d bytes, found %d\n", checksumBodySize, len(values))
	}

	sum, err := protocol.ChecksumValues(values)
	if err != nil {
		return err
	}
	fmt.Printf("%02X\n", sum)
	return nil
}

// parseByteArgs parses space or comma separated byte values.
func parseByteArgs(args []string, hex bool) ([]int, error) {
	base := 10
	if hex {
		base = 16
	}

	var values []int
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			if hex {
				field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
			}
			v, err := strconv.ParseInt(field, base, 0)
			if err != nil {
				return nil, fmt.Errorf("invalid byte %q: %w", field, err)
			}
			values = append(values, int(v))
		}
	}
	return values, nil
}
