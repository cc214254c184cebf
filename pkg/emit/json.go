// Package emit renders scan results, timelines, and reports for external
// consumers: JSON/JSONL records and Graphviz DOT. The core packages supply
// the structured data only; nothing here feeds back into them.
package emit

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/ssargent/durapack/pkg/fec"
	"github.com/ssargent/durapack/pkg/link"
	"github.com/ssargent/durapack/pkg/scan"
)

// StatsRecord is the JSONL line summarizing a scan.
type StatsRecord struct {
	Type           string `json:"type"`
	BytesScanned   int    `json:"bytes_scanned"`
	MarkersFound   int    `json:"markers_found"`
	FramesFound    int    `json:"frames_found"`
	DecodeFailures int    `json:"decode_failures"`
	Truncations    int    `json:"truncations"`
}

// FrameRecord is the JSONL line for one recovered frame.
type FrameRecord struct {
	Type       string  `json:"type"`
	Offset     int     `json:"offset"`
	FrameID    uint64  `json:"frame_id"`
	PayloadLen uint32  `json:"payload_len"`
	Size       int     `json:"size"`
	Payload    string  `json:"payload"`
	Confidence float64 `json:"confidence"`
}

// GapRecord is the JSONL line for one timeline gap.
type GapRecord struct {
	Type       string  `json:"type"`
	Before     uint64  `json:"before"`
	After      uint64  `json:"after"`
	Confidence float64 `json:"confidence"`
}

// WriteScanJSONL writes a stats line, then gap lines, then one line per
// recovered frame.
func WriteScanJSONL(w io.Writer, located []scan.LocatedFrame, stats scan.Statistics, t *link.Timeline) error {
	writeLine := func(v any) error {
		line, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return err
		}
		return nil
	}

	if err := writeLine(StatsRecord{
		Type:           "stats",
		BytesScanned:   stats.BytesScanned,
		MarkersFound:   stats.MarkersFound,
		FramesFound:    stats.FramesFound,
		DecodeFailures: stats.DecodeFailures,
		Truncations:    stats.Truncations,
	}); err != nil {
		return err
	}

	if t != nil {
		for _, g := range t.Gaps {
			if err := writeLine(GapRecord{
				Type:       "gap",
				Before:     g.BeforeID,
				After:      g.AfterID,
				Confidence: g.Confidence,
			}); err != nil {
				return err
			}
		}
	}

	for _, lf := range located {
		if err := writeLine(FrameRecord{
			Type:       "frame",
			Offset:     lf.Offset,
			FrameID:    lf.Frame.Header.FrameID,
			PayloadLen: lf.Frame.Header.PayloadLen,
			Size:       lf.Size,
			Payload:    string(lf.Frame.Payload),
			Confidence: lf.Confidence,
		}); err != nil {
			return err
		}
	}
	return nil
}

// reportView is the JSON shape of a Report.
type reportView struct {
	Frames         []frameView     `json:"frames"`
	Gaps           []gapDetailView `json:"gaps"`
	Orphans        []frameView     `json:"orphans"`
	Duplicates     []dupeView      `json:"duplicates"`
	Conflicts      []conflictView  `json:"conflicts"`
	OrphanClusters [][]uint64      `json:"orphan_clusters"`
	Recipes        []recipeView    `json:"recipes"`
	Continuity     float64         `json:"continuity"`
}

type frameView struct {
	FrameID    uint64 `json:"frame_id"`
	PayloadLen uint32 `json:"payload_len"`
	Flags      uint8  `json:"flags"`
}

type gapDetailView struct {
	Before     uint64  `json:"before"`
	After      uint64  `json:"after"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

type dupeView struct {
	FrameID        uint64 `json:"frame_id"`
	KeptOffset     int    `json:"kept_offset"`
	DroppedOffsets []int  `json:"dropped_offsets"`
}

type conflictView struct {
	Kind         string   `json:"kind"`
	FrameID      uint64   `json:"frame_id,omitempty"`
	PrevHash     string   `json:"prev_hash,omitempty"`
	ContenderIDs []uint64 `json:"contender_ids"`
	Offsets      []int    `json:"offsets"`
}

type recipeView struct {
	Kind      string   `json:"kind"`
	Between   []uint64 `json:"between,omitempty"`
	NearFrame uint64   `json:"near_frame,omitempty"`
	ByBytes   int64    `json:"by_bytes,omitempty"`
	Reason    string   `json:"reason"`
}

// ReportJSON marshals a report as indented JSON.
func ReportJSON(r *link.Report) ([]byte, error) {
	view := reportView{
		OrphanClusters: [][]uint64{},
		Continuity:     r.Timeline.Stats().Continuity,
	}
	for _, f := range r.Timeline.Frames {
		view.Frames = append(view.Frames, frameView{
			FrameID:    f.Header.FrameID,
			PayloadLen: f.Header.PayloadLen,
			Flags:      uint8(f.Header.Flags),
		})
	}
	for _, gd := range r.GapDetails {
		view.Gaps = append(view.Gaps, gapDetailView{
			Before:     gd.BeforeID,
			After:      gd.AfterID,
			Confidence: gd.Confidence,
			Reason:     string(gd.Reason),
		})
	}
	for _, f := range r.Timeline.Orphans {
		view.Orphans = append(view.Orphans, frameView{
			FrameID:    f.Header.FrameID,
			PayloadLen: f.Header.PayloadLen,
			Flags:      uint8(f.Header.Flags),
		})
	}
	for _, d := range r.Timeline.Duplicates {
		view.Duplicates = append(view.Duplicates, dupeView(d))
	}
	for _, c := range r.Conflicts {
		cv := conflictView{
			Kind:         string(c.Kind),
			ContenderIDs: c.ContenderIDs,
			Offsets:      c.Offsets,
		}
		if c.Kind == link.ConflictFrameID {
			cv.FrameID = c.FrameID
		} else {
			cv.PrevHash = hex.EncodeToString(c.PrevHash[:])
		}
		view.Conflicts = append(view.Conflicts, cv)
	}
	for _, cl := range r.OrphanClusters {
		view.OrphanClusters = append(view.OrphanClusters, cl.IDs)
	}
	for _, rec := range r.Recipes {
		rv := recipeView{Kind: string(rec.Kind), Reason: rec.Reason}
		switch rec.Kind {
		case link.RecipeInsertParityFrame:
			rv.Between = []uint64{rec.Between[0], rec.Between[1]}
		case link.RecipeRewindOffset:
			rv.NearFrame = rec.NearFrame
			rv.ByBytes = rec.ByBytes
		}
		view.Recipes = append(view.Recipes, rv)
	}
	return json.MarshalIndent(view, "", "  ")
}

// FramesJSON marshals recovered frames the way the scan command's --output
// mode expects: an array of frame records with payloads as strings.
func FramesJSON(located []scan.LocatedFrame) ([]byte, error) {
	records := make([]FrameRecord, 0, len(located))
	for _, lf := range located {
		records = append(records, FrameRecord{
			Type:       "frame",
			Offset:     lf.Offset,
			FrameID:    lf.Frame.Header.FrameID,
			PayloadLen: lf.Frame.Header.PayloadLen,
			Size:       lf.Size,
			Payload:    string(lf.Frame.Payload),
			Confidence: lf.Confidence,
		})
	}
	return json.MarshalIndent(records, "", "  ")
}

// SidecarJSON marshals a FEC sidecar index.
func SidecarJSON(entries []fec.IndexEntry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

// ParseSidecarJSON reads a sidecar index written by SidecarJSON.
func ParseSidecarJSON(data []byte) ([]fec.IndexEntry, error) {
	var entries []fec.IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing sidecar index: %w", err)
	}
	return entries, nil
}
