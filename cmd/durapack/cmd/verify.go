package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ssargent/durapack/pkg/codec"
)

var verifyInput string

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Strictly validate a frame stream",
	Long: `Verify walks a stream frame by frame, requiring every frame to decode
strictly at its expected offset and every back-link to match the computed
hash of its predecessor. The first violation fails the command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(verifyInput)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)

		var prevHash [codec.Blake3Size]byte
		havePrev := false
		offset := 0
		count := 0

		for offset < len(data) {
			offset = skipWirePrefix(data, offset)
			if offset >= len(data) {
				break
			}
			frame, err := codec.Decode(data[offset:])
			if err != nil {
				red.Printf("FAIL at offset %d: %v\n", offset, err)
				return fmt.Errorf("verification failed")
			}
			if havePrev && !frame.Header.IsChainRoot() && frame.Header.PrevHash != prevHash {
				red.Printf("FAIL at offset %d: back-link mismatch on frame %d\n", offset, frame.Header.FrameID)
				return fmt.Errorf("verification failed")
			}
			prevHash = codec.ComputeFrameHash(frame)
			havePrev = true
			offset += frame.TotalSize()
			count++
		}

		green.Printf("OK: %d frames, %d bytes, chain intact\n", count, len(data))
		return nil
	},
}

// skipWirePrefix advances past a preamble run and/or sync word so the
// strict decoder lands on the marker.
func skipWirePrefix(data []byte, offset int) int {
	for offset < len(data) && data[offset] == codec.PreamblePattern {
		offset++
	}
	sw := codec.RobustSyncWord[:]
	if offset+len(sw) <= len(data) && string(data[offset:offset+len(sw)]) == string(sw) {
		offset += len(sw)
	}
	return offset
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifyInput, "input", "i", "-", "Input stream path, - for stdin")
}
