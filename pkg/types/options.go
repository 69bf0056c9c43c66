package types

// Unlimited disables a numeric scan limit. MaxDepth and MaxFileSize treat
// any negative value as unlimited; zero is a meaningful limit for both.
const Unlimited = -1

// ScanOptions controls filtering and concurrency for one directory scan.
// The zero value is NOT the default configuration: zero MaxFileSize excludes
// every file and zero MaxDepth stops at the root's immediate children. Use
// DefaultScanOptions as a starting point.
type ScanOptions struct {
	// Exclude lists glob patterns matched against forward-slash paths
	// relative to the scan root. Patterns support `*`, `**`, `?` and
	// bracket classes. A pattern of the form "dir/**" also removes the
	// "dir" entry itself.
	Exclude []string

	// MaxDepth bounds recursion. 0 yields only the root's immediate
	// children; negative means unlimited.
	MaxDepth int

	// IncludeHidden surfaces dot-prefixed names. Hidden filtering is
	// applied before Exclude matching.
	IncludeHidden bool

	// MaxFileSize excludes files larger than this many bytes. 0 excludes
	// all files; negative means unlimited. Directories are unaffected.
	MaxFileSize int64

	// Concurrency is the number of scan workers. Values below 1 are
	// treated as 1 (sequential depth-first traversal).
	Concurrency int
}

// DefaultScanOptions returns the standard configuration: no excludes,
// unlimited depth and size, hidden entries skipped, sequential traversal.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MaxDepth:    Unlimited,
		MaxFileSize: Unlimited,
		Concurrency: 1,
	}
}

// Normalized returns a copy with Concurrency clamped to at least 1.
func (o ScanOptions) Normalized() ScanOptions {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	return o
}

// DepthUnlimited reports whether recursion depth is unbounded.
func (o ScanOptions) DepthUnlimited() bool {
	return o.MaxDepth < 0
}

// SizeUnlimited reports whether file size filtering is disabled.
func (o ScanOptions) SizeUnlimited() bool {
	return o.MaxFileSize < 0
}
