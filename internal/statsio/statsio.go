// Package statsio implements spec.md §6's out-of-core statistics surface
// (print_stats, print_stats_xml) over a process's HeapMaster, writing
// through the same raw write(2) discipline the allocator's own
// diagnostics use rather than through an allocating formatted-I/O stack.
package statsio

import (
	"encoding/xml"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sys/unix"

	"github.com/llheap-go/llheap/internal/llheap"
)

// SchemaVersion is the version recorded in every XML statistics document
// this package emits. Bump it whenever a field is added, renamed, or
// removed, per github.com/Masterminds/semver/v3's semantics: additive
// changes bump the minor version, breaking ones the major version.
var SchemaVersion = semver.MustParse("1.0.0")

// PrintStats writes a compact, single-line, human-readable rendering of s
// to fd using the raw write syscall.
func PrintStats(fd int, s llheap.Stats) error {
	line := fmt.Sprintf(
		"llheap-stats alloc=%d free=%d resize=%d realloc=%d zero_size=%d "+
			"bytes_requested=%d bytes_in_buckets=%d bytes_freed=%d "+
			"mmap=%d munmap=%d region_extends=%d return_drains=%d remote_frees=%d\n",
		s.AllocCount, s.FreeCount, s.ResizeCount, s.ReallocCount, s.ZeroSizeCount,
		s.BytesRequested, s.BytesInBuckets, s.BytesFreed,
		s.MmapCount, s.MunmapCount, s.RegionExtends, s.ReturnDrains, s.RemoteFrees,
	)

	_, err := unix.Write(fd, []byte(line))

	return err
}

// xmlStats is the wire shape print_stats_xml emits. Field order matches
// the Stats struct it mirrors, field names use the allocator's own
// terminology rather than any host-language naming convention.
type xmlStats struct {
	XMLName xml.Name `xml:"llheap-stats"`
	Schema  string   `xml:"schema,attr"`

	AllocCount     uint64 `xml:"alloc-count"`
	FreeCount      uint64 `xml:"free-count"`
	ResizeCount    uint64 `xml:"resize-count"`
	ReallocCount   uint64 `xml:"realloc-count"`
	ZeroSizeCount  uint64 `xml:"zero-size-count"`
	BytesRequested uint64 `xml:"bytes-requested"`
	BytesInBuckets uint64 `xml:"bytes-in-buckets"`
	BytesFreed     uint64 `xml:"bytes-freed"`
	MmapCount      uint64 `xml:"mmap-count"`
	MunmapCount    uint64 `xml:"munmap-count"`
	RegionExtends  uint64 `xml:"region-extends"`
	ReturnDrains   uint64 `xml:"return-drains"`
	RemoteFrees    uint64 `xml:"remote-frees"`
}

// PrintStatsXML writes an XML rendering of s to fd, tagged with
// SchemaVersion so a long-lived external consumer can detect a field it
// does not understand yet rather than silently misparsing it.
func PrintStatsXML(fd int, s llheap.Stats) error {
	doc := xmlStats{
		Schema:         SchemaVersion.String(),
		AllocCount:     s.AllocCount,
		FreeCount:      s.FreeCount,
		ResizeCount:    s.ResizeCount,
		ReallocCount:   s.ReallocCount,
		ZeroSizeCount:  s.ZeroSizeCount,
		BytesRequested: s.BytesRequested,
		BytesInBuckets: s.BytesInBuckets,
		BytesFreed:     s.BytesFreed,
		MmapCount:      s.MmapCount,
		MunmapCount:    s.MunmapCount,
		RegionExtends:  s.RegionExtends,
		ReturnDrains:   s.ReturnDrains,
		RemoteFrees:    s.RemoteFrees,
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("statsio: marshal: %w", err)
	}

	data = append(data, '\n')

	_, err = unix.Write(fd, data)

	return err
}

// CompatibleSchema reports whether a schema version read back from an
// external consumer's expectations is satisfied by SchemaVersion, using
// semver's caret-range semantics (same major version, >= requested
// minor/patch).
func CompatibleSchema(requested string) (bool, error) {
	c, err := semver.NewConstraint("^" + requested)
	if err != nil {
		return false, fmt.Errorf("statsio: bad version constraint %q: %w", requested, err)
	}

	return c.Check(SchemaVersion), nil
}
