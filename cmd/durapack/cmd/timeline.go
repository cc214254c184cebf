package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ssargent/durapack/pkg/emit"
	"github.com/ssargent/durapack/pkg/link"
	"github.com/ssargent/durapack/pkg/scan"
)

var (
	timelineInput string
	timelineDOT   string
	timelineJSON  string
)

// timelineCmd represents the timeline command
var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Reconstruct and analyze the frame timeline of a stream",
	Long: `Timeline scans a stream, re-threads the recovered frames along their
back-links, and reports gaps, orphans, conflicts, and repair hints.

Example:
  durapack timeline -i salvaged.img --dot timeline.dot`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := readInput(timelineInput)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		located, _ := scan.ScanWithOptions(data, scan.Options{
			MarkerHamming:          cfg.Scan.MarkerHamming,
			AllowCombinedIntegrity: cfg.Scan.AllowCombinedIntegrity,
		})
		timeline := link.LinkLocated(located)
		report := link.Analyze(timeline)

		printReport(report)

		if timelineDOT != "" {
			if err := os.WriteFile(timelineDOT, []byte(emit.ReportDOT(report)), 0600); err != nil {
				return fmt.Errorf("writing DOT: %w", err)
			}
		}
		if timelineJSON != "" {
			blob, err := emit.ReportJSON(report)
			if err != nil {
				return fmt.Errorf("serializing report: %w", err)
			}
			if err := os.WriteFile(timelineJSON, blob, 0600); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
		}
		return nil
	},
}

func printReport(report *link.Report) {
	t := report.Timeline
	stats := t.Stats()

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Println("=== Timeline ===")
	fmt.Printf("Frames:     %d ordered, %d orphans\n", len(t.Frames), len(t.Orphans))
	fmt.Printf("Continuity: %.1f%%\n", stats.Continuity)

	if len(t.Frames) > 0 {
		fmt.Print("Order:      ")
		for i, f := range t.Frames {
			if i > 0 {
				fmt.Print(" -> ")
			}
			fmt.Printf("%d", f.Header.FrameID)
		}
		fmt.Println()
	}

	if len(report.GapDetails) == 0 {
		green.Println("No gaps.")
	}
	for _, gd := range report.GapDetails {
		yellow.Printf("Gap between %d and %d (%s, confidence %.2f)\n",
			gd.BeforeID, gd.AfterID, gd.Reason, gd.Confidence)
	}

	for _, d := range t.Duplicates {
		yellow.Printf("Duplicate frame %d dropped at offsets %v (kept %d)\n",
			d.FrameID, d.DroppedOffsets, d.KeptOffset)
	}

	for _, c := range report.Conflicts {
		if c.Kind == link.ConflictFrameID {
			red.Printf("Conflict: frame id %d claimed by differing frames at offsets %v\n", c.FrameID, c.Offsets)
		} else {
			red.Printf("Conflict: fork, frames %v share a predecessor\n", c.ContenderIDs)
		}
	}

	for i, cluster := range report.OrphanClusters {
		yellow.Printf("Orphan cluster #%d: frames %v\n", i, cluster.IDs)
	}

	for _, rec := range report.Recipes {
		switch rec.Kind {
		case link.RecipeInsertParityFrame:
			fmt.Printf("Hint: insert parity between %d and %d (%s)\n", rec.Between[0], rec.Between[1], rec.Reason)
		case link.RecipeRewindOffset:
			fmt.Printf("Hint: rewind offset near frame %d by %d bytes (%s)\n", rec.NearFrame, rec.ByBytes, rec.Reason)
		}
	}
}

func init() {
	rootCmd.AddCommand(timelineCmd)
	timelineCmd.Flags().StringVarP(&timelineInput, "input", "i", "-", "Input stream path, - for stdin")
	timelineCmd.Flags().StringVar(&timelineDOT, "dot", "", "Write a Graphviz rendering to this path")
	timelineCmd.Flags().StringVar(&timelineJSON, "json", "", "Write the full report as JSON to this path")
}
