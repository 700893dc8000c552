package llheap

import "sort"

// WordAlign is the platform's strictest scalar alignment. Every user
// address this package returns, and every bucket size in bucketSizes, is a
// multiple of it.
const WordAlign = 16

// HeaderSize is the size in bytes of a real or fake block header. It is
// always equal to WordAlign: two pointer-sized words, padded to the
// alignment so the user address that follows a header is itself aligned.
const HeaderSize = WordAlign

// bucketSizes is the process-wide, strictly increasing table of block
// sizes. Sizes start at WordAlign+HeaderSize and grow sub-linearly, with
// finer granularity near common small-object sizes and coarser,
// power-of-two-anchored granularity approaching the mmap crossover. The
// table is built once at package init and never mutated afterward.
//
// The generator below is grounded on the size-class tables in
// internal/allocator/allocator.go's sizeClasses (teacher) and the bucket
// doubling-with-midpoint scheme cloudfly-readgo/runtime/msize.go uses for
// Go's own runtime size classes; spec.md only requires "B ≈ 91-96",
// strictly increasing, so the exact class boundaries are a free design
// choice.
var bucketSizes []uintptr

func init() {
	bucketSizes = buildBucketSizes()
}

func buildBucketSizes() []uintptr {
	seen := make(map[uintptr]bool)
	var sizes []uintptr

	add := func(s uintptr) {
		if s%WordAlign != 0 {
			s = alignUp(s, WordAlign)
		}
		if !seen[s] {
			seen[s] = true
			sizes = append(sizes, s)
		}
	}

	const minSize = WordAlign + HeaderSize // 32

	for s := minSize; s <= 512; s += 16 {
		add(s)
	}
	for s := uintptr(528); s <= 1024; s += 32 {
		add(s)
	}
	for s := uintptr(1088); s <= 2048; s += 64 {
		add(s)
	}
	for s := uintptr(2176); s <= 4096; s += 128 {
		add(s)
	}

	// Coarser, power-of-two-anchored classes with a single 1.5x
	// intermediate between consecutive powers, up to the default mmap
	// crossover (8 MiB, see config.go's defaultMmapStart).
	for base := uintptr(4096); base < 8*1024*1024; base *= 2 {
		add(base + base/2)
		add(base * 2)
	}

	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	return sizes
}

// fastLookupSpan bounds the range of total sizes (user size + HeaderSize)
// covered by the O(1) fastLookup table, per spec.md §3.
const fastLookupSpan = 65536 + HeaderSize

// fastLookup maps a total-size request in [0, fastLookupSpan) to a bucket
// index, built by a single linear sweep at init time. It satisfies
// bucketSizes[fastLookup[i]-1] < i <= bucketSizes[fastLookup[i]] for i>0.
var fastLookup []uint8

func init() {
	fastLookup = buildFastLookup()
}

func buildFastLookup() []uint8 {
	table := make([]uint8, fastLookupSpan+1)

	bucket := 0
	for total := uintptr(1); total <= fastLookupSpan; total++ {
		for bucket < len(bucketSizes) && bucketSizes[bucket] < total {
			bucket++
		}
		if bucket >= len(bucketSizes) {
			// Beyond the table's largest bucket; binary search handles it.
			table[total] = uint8(len(bucketSizes) - 1)
			continue
		}
		table[total] = uint8(bucket)
	}

	return table
}

// bucketIndexForTotal returns the index of the smallest bucket whose size
// is >= total, using the fast-lookup table within its range and a binary
// search over bucketSizes beyond it (spec.md §3/§4.4). total must be > 0.
// When total exceeds every bucket size it returns the last index, whose
// size is then smaller than total.
func bucketIndexForTotal(total uintptr) int {
	if total <= fastLookupSpan {
		return int(fastLookup[total])
	}

	idx := sort.Search(len(bucketSizes), func(i int) bool {
		return bucketSizes[i] >= total
	})
	if idx == len(bucketSizes) {
		return len(bucketSizes) - 1
	}

	return idx
}

// largestBucketAtOrBelow returns the index of the largest bucket whose size
// is <= size, or -1 if size is smaller than the smallest bucket. Used by
// manager_extend (heap.go) to classify a bump-reserve residual, and by
// heap_master_init (master.go) to compute the maximum usable bucket given
// the mmap crossover.
func largestBucketAtOrBelow(size uintptr) int {
	idx := sort.Search(len(bucketSizes), func(i int) bool {
		return bucketSizes[i] > size
	})

	return idx - 1
}

// alignUp rounds size up to the nearest multiple of alignment, which must
// be a power of two.
func alignUp(size, alignment uintptr) uintptr {
	return (size + alignment - 1) &^ (alignment - 1)
}

// isPowerOfTwo reports whether v is a power of two (v > 0).
func isPowerOfTwo(v uintptr) bool {
	return v > 0 && v&(v-1) == 0
}
