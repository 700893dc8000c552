package llheap

import (
	"fmt"
	"sync/atomic"
)

// Default values for the allocator's weak override points (spec.md §6):
// host programs may override these at construction time via Option values
// passed to New, mirroring the teacher's functional-options Config in
// internal/allocator/allocator.go (WithArenaSize, WithPoolSizes, ...).
const (
	defaultExtendAmount    = 8 * 1024 * 1024 // 8 MiB, spec.md §6 extend_amount()
	defaultMmapStart       = 8*1024*1024 + HeaderSize
	defaultExpectedUnfreed = 0
)

// Config holds the two tunable knobs spec.md §6/§7 allows (extend amount
// and mmap crossover), the three weak override points, and the
// ownership-mode policy decision from spec.md §9's "Open question:
// no-ownership mode".
type Config struct {
	ExtendAmount    uintptr
	MmapCrossover   uintptr
	ExpectedUnfreed uintptr
	Ownership       bool
	StatsFD         int
}

// Option mutates a Config during New. Grounded on the teacher's
// WithArenaSize/WithPoolSizes/WithMemoryLimit option functions.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		ExtendAmount:    defaultExtendAmount,
		MmapCrossover:   defaultMmapStart,
		ExpectedUnfreed: defaultExpectedUnfreed,
		Ownership:       true,
		StatsFD:         2, // stderr, per spec.md §7's default
	}
}

// WithExtendAmount overrides extend_amount(), the number of bytes the
// region provider maps per extension beyond what a single request needs.
// New rounds it up to a multiple of WordAlign; the runtime path,
// Configure(ConfigExtendAmount), rounds up to the page size instead.
func WithExtendAmount(n uintptr) Option {
	return func(c *Config) { c.ExtendAmount = n }
}

// WithMmapCrossover overrides mmap_start(), the total-size threshold above
// which allocations bypass bucketing. New uses the value as given; only the
// runtime path, Configure(ConfigMmapCrossover), clips it to [page size,
// largest bucket].
func WithMmapCrossover(n uintptr) Option {
	return func(c *Config) { c.MmapCrossover = n }
}

// WithExpectedUnfreed overrides expected_unfreed(), used only by the
// debug-mode leak reporter in debug.go.
func WithExpectedUnfreed(n uintptr) Option {
	return func(c *Config) { c.ExpectedUnfreed = n }
}

// WithOwnership selects ownership mode (the default: foreign frees go to
// the owning heap's per-bucket return list) versus no-ownership mode (a
// foreign free is absorbed by the freeing goroutine's own heap, per
// spec.md §9's resolved-as-supported-but-not-default policy; see
// SPEC_FULL.md's "No-ownership build mode").
func WithOwnership(enabled bool) Option {
	return func(c *Config) { c.Ownership = enabled }
}

// WithStatsFD sets the file descriptor diagnostics and statsio writes to.
func WithStatsFD(fd int) Option {
	return func(c *Config) { c.StatsFD = fd }
}

// configOption identifies the two knobs the public Configure entry point
// (spec.md §6) accepts. Any other option is rejected, per spec.md's
// Non-goal "mallopt tuning beyond two knobs".
type configOption int

const (
	ConfigExtendAmount configOption = iota
	ConfigMmapCrossover
)

// Configure applies one of the two supported runtime knobs after the
// master has already booted. Unlike the Option values passed to New
// (which seed Config before boot), Configure mutates a live HeapMaster,
// matching spec.md §6's "configure(option, value)" host-program entry
// point.
func (m *HeapMaster) Configure(option configOption, value uintptr) error {
	switch option {
	case ConfigExtendAmount:
		atomic.StoreUintptr(&m.extendAmountBytes, alignUp(value, m.pageSize))

		return nil
	case ConfigMmapCrossover:
		clipped := value
		if pg := m.pageSize; clipped < pg {
			clipped = pg
		}

		if max := bucketSizes[len(bucketSizes)-1]; clipped > max {
			clipped = max
		}

		m.mu.Lock()
		m.mmapCrossover = clipped
		m.maxUsableBucket = largestBucketAtOrBelow(clipped)
		m.mu.Unlock()

		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownOption, option)
	}
}
