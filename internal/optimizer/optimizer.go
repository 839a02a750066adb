// Package optimizer turns a description of a pending transfer into a
// concrete engine invocation: how many parallel transfers and checkers to
// run, how big the read buffer should be, whether a single large download
// gets split across byte-range streams, and which provider-specific listing
// and chunking flags apply. Optimize is a total function: degenerate input
// yields the conservative default, never an error.
package optimizer

import (
	"strconv"

	"csync-go/internal/provider"
)

// Tuning constants. Transfers scale between the default and the hard cap
// depending on file count and mean file size.
const (
	defaultTransfers = 4
	maxTransfers     = 32

	// Mean-size boundaries for the parallelism heuristic.
	smallFileMean = 1_000_000   // below this, many small files dominate
	largeFileMean = 100_000_000 // above this, per-file throughput dominates

	// DefaultMultiThreadCutoff is the engine-side cutoff below which it
	// will not split a file even when streams are requested.
	DefaultMultiThreadCutoff = "100M"
)

// TransferRequest describes one pending transfer. It is consumed once and
// never mutated.
type TransferRequest struct {
	FileCount   int
	TotalBytes  int64
	RemoteName  string
	IsDirectory bool
	IsDownload  bool
}

// TransferConfig is the optimizer's output: a complete tuning decision for
// one engine invocation. Values are final; BuildArgs flattens them without
// further interpretation.
type TransferConfig struct {
	Transfers          int
	Checkers           int
	BufferSize         string
	MultiThread        bool
	MultiThreadStreams int
	MultiThreadCutoff  string
	FastList           bool
	ChunkSizeFlag      string // provider-specific flag, "" when none applies
}

// MultiThreadPolicy is the user-tunable policy for splitting single large
// downloads across parallel byte-range streams.
type MultiThreadPolicy struct {
	Enabled            bool
	ThreadCount        int
	SizeThresholdBytes int64
}

// DefaultMultiThreadPolicy returns the system default: enabled, 4 streams,
// 100MB activation threshold.
func DefaultMultiThreadPolicy() MultiThreadPolicy {
	return MultiThreadPolicy{
		Enabled:            true,
		ThreadCount:        4,
		SizeThresholdBytes: 100_000_000,
	}
}

// Validate clamps the thread count to the supported 1-16 range and restores
// the default threshold if unset.
func (p *MultiThreadPolicy) Validate() {
	if p.ThreadCount < 1 {
		p.ThreadCount = 1
	}
	if p.ThreadCount > 16 {
		p.ThreadCount = 16
	}
	if p.SizeThresholdBytes <= 0 {
		p.SizeThresholdBytes = 100_000_000
	}
}

// Optimize produces a TransferConfig for the given request under the given
// policy. Pure and total: no I/O, no failure mode.
func Optimize(req TransferRequest, policy MultiThreadPolicy) TransferConfig {
	policy.Validate()

	cfg := TransferConfig{
		Transfers:         transfersFor(req.FileCount, req.TotalBytes),
		Checkers:          checkersFor(req.FileCount),
		BufferSize:        bufferSizeFor(req.TotalBytes),
		MultiThreadCutoff: DefaultMultiThreadCutoff,
		FastList:          provider.SupportsFastList(req.RemoteName),
		ChunkSizeFlag:     provider.ChunkSizeFlag(req.RemoteName),
	}

	// Multi-threading applies only to the single-file download path.
	// Directories and uploads lean on process-level parallelism instead.
	if req.FileCount == 1 && !req.IsDirectory && req.IsDownload &&
		policy.Enabled && req.TotalBytes > policy.SizeThresholdBytes {
		capability := provider.CapabilityFor(req.RemoteName)
		streams := policy.ThreadCount
		if limit := capability.MaxRecommendedThreads(); streams > limit {
			streams = limit
		}
		if capability != provider.Unsupported && streams > 0 {
			cfg.MultiThread = true
			cfg.MultiThreadStreams = streams
		}
	}

	return cfg
}

// transfersFor picks the process-level parallelism. Small batches stay at
// the default; swarms of small files scale up toward the cap; large mean
// file sizes pull parallelism back down because each transfer already
// saturates its connection.
func transfersFor(fileCount int, totalBytes int64) int {
	if fileCount <= 10 {
		return defaultTransfers
	}

	mean := totalBytes / int64(fileCount)
	switch {
	case mean < smallFileMean:
		n := fileCount / 25
		if n < 16 {
			n = 16
		}
		if n > maxTransfers {
			n = maxTransfers
		}
		return n
	case mean > largeFileMean:
		return 8
	default:
		return 8
	}
}

// checkersFor scales comparison workers with directory size alone; byte
// volume is irrelevant to metadata checks.
func checkersFor(fileCount int) int {
	switch {
	case fileCount < 100:
		return 16
	case fileCount < 1000:
		return 24
	default:
		return 32
	}
}

// bufferSizeFor scales the per-transfer read-ahead buffer with total volume.
func bufferSizeFor(totalBytes int64) string {
	switch {
	case totalBytes < 100_000_000:
		return "32M"
	case totalBytes < 1_000_000_000:
		return "64M"
	default:
		return "128M"
	}
}

// DefaultArgs returns the baseline tuning flags used when no request
// description is available.
func DefaultArgs() []string {
	return []string{
		"--transfers", "4",
		"--checkers", "16",
		"--buffer-size", "32M",
	}
}

// BuildArgs flattens a config into an ordered engine argument vector.
// Disabled booleans are omitted entirely; the engine has no false-valued
// forms for these flags.
func BuildArgs(cfg TransferConfig) []string {
	args := []string{
		"--transfers", strconv.Itoa(cfg.Transfers),
		"--checkers", strconv.Itoa(cfg.Checkers),
		"--buffer-size", cfg.BufferSize,
	}

	if cfg.MultiThread {
		args = append(args,
			"--multi-thread-streams", strconv.Itoa(cfg.MultiThreadStreams),
			"--multi-thread-cutoff", cfg.MultiThreadCutoff,
		)
	}

	if cfg.FastList {
		args = append(args, "--fast-list")
	}

	if cfg.ChunkSizeFlag != "" {
		args = append(args, cfg.ChunkSizeFlag)
	}

	return args
}
