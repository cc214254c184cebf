// Package link orders recovered frames into timelines and analyzes the
// result.
//
// The linker groups frames by ID (keeping the first occurrence, warning on
// duplicates), finds chain roots (zero prev_hash or the first-frame flag),
// and greedily extends each chain by matching computed full-frame hashes
// against back-links. Frames that cannot be hash-linked are stitched in by
// ascending ID with explicit gaps; frames whose ID collides with a
// differing earlier frame become orphans.
//
// Frames live in an indexed arena; linkage is expressed through integer
// indices and hash/ID side maps, so a timeline holds no reference cycles.
// A Timeline is built in one pass and immutable afterwards.
//
// Analyze derives a Report: gap reasons, frame-ID and fork conflicts,
// orphan clusters (connected components over unmatched back-links), and
// advisory repair recipes. Nothing at this layer is fatal — corruption
// surfaces as data, not errors.
package link
