package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/durapack/pkg/codec"
	"github.com/ssargent/durapack/pkg/config"
)

var (
	packInput   string
	packOutput  string
	packTrailer string
	packStartID uint64
)

// packCmd represents the pack command
var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack input lines into a chained frame stream",
	Long: `Pack reads line-delimited records and encodes each line as one frame,
back-linked to its predecessor. The first frame is marked first, the final
frame is marked last.

Example:
  durapack pack -i records.txt -o archive.dp --trailer blake3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if packTrailer != "" {
			cfg.Pack.Trailer = packTrailer
		}
		if cmd.Flags().Changed("start-id") {
			cfg.Pack.StartID = packStartID
		}

		content, err := readInput(packInput)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		payloads := splitLines(content)
		if len(payloads) == 0 {
			return fmt.Errorf("no records to pack")
		}

		stream, frames, err := encodeChain(payloads, cfg)
		if err != nil {
			return err
		}

		output := packOutput
		if output == "" {
			output = fmt.Sprintf("durapack-%s.dp", ksuid.New().String())
		}
		if err := os.WriteFile(output, stream, 0600); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}

		fmt.Printf("Packed %d frames (%d bytes) into %s\n", len(frames), len(stream), output)
		return nil
	},
}

// splitLines returns the lines of content as payloads, skipping lines that
// are empty or whitespace-only. Kept lines are not trimmed.
func splitLines(content []byte) [][]byte {
	var payloads [][]byte
	for _, line := range bytes.Split(content, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		payloads = append(payloads, line)
	}
	return payloads
}

// encodeChain builds one back-linked frame per payload and returns the
// concatenated stream with the built frames.
func encodeChain(payloads [][]byte, cfg *config.Config) ([]byte, []*codec.Frame, error) {
	trailer, err := cfg.TrailerType()
	if err != nil {
		return nil, nil, err
	}

	var stream []byte
	var frames []*codec.Frame
	var prevHash [codec.Blake3Size]byte

	for i, payload := range payloads {
		builder := codec.NewFrameBuilder(cfg.Pack.StartID + uint64(i)).
			Payload(payload).
			PrevHash(prevHash)
		switch trailer {
		case codec.TrailerCRC32C:
			builder = builder.WithCRC32C()
		case codec.TrailerBlake3:
			builder = builder.WithBlake3()
		}
		if i == 0 {
			builder = builder.MarkFirst()
		}
		if i == len(payloads)-1 {
			builder = builder.MarkLast()
		}
		if cfg.Pack.Preamble {
			builder = builder.WithPreamble()
		}
		if cfg.Pack.SyncPrefix {
			builder = builder.WithSyncPrefix()
		}

		frame, encoded, err := builder.BuildStruct()
		if err != nil {
			return nil, nil, fmt.Errorf("building frame %d: %w", cfg.Pack.StartID+uint64(i), err)
		}
		stream = append(stream, encoded...)
		frames = append(frames, frame)
		prevHash = codec.ComputeFrameHash(frame)
	}

	return stream, frames, nil
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().StringVarP(&packInput, "input", "i", "-", "Input file of line-delimited records, - for stdin")
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "", "Output stream path (default durapack-<id>.dp)")
	packCmd.Flags().StringVar(&packTrailer, "trailer", "", "Integrity trailer: none, crc32c, or blake3")
	packCmd.Flags().Uint64Var(&packStartID, "start-id", 1, "Frame ID of the first frame")
}
