// Package provider holds the static per-provider tuning tables consumed by
// the transfer optimizer: multi-thread capability tiers and upload chunk
// sizes. Lookups match case-insensitively by substring because remote names
// are user-chosen and usually embed the provider name ("workOneDrive",
// "myS3Bucket"). The tables are built once at init and never mutated.
package provider

import (
	"fmt"
	"strings"
)

// Capability classifies how well a provider handles multi-threaded
// byte-range downloads of a single file.
type Capability int

const (
	// Full support: object stores that serve arbitrary range requests
	// without throttling per-connection.
	Full Capability = iota
	// Limited support: consumer OAuth drives that allow ranged reads but
	// throttle aggressive parallelism.
	Limited
	// Unsupported: backends where ranged parallel reads are pointless or
	// harmful (local disk, single-channel protocols).
	Unsupported
)

// MaxRecommendedThreads returns the stream ceiling for this tier.
func (c Capability) MaxRecommendedThreads() int {
	switch c {
	case Full:
		return 16
	case Limited:
		return 4
	default:
		return 1
	}
}

func (c Capability) String() string {
	switch c {
	case Full:
		return "full"
	case Limited:
		return "limited"
	default:
		return "unsupported"
	}
}

// Substring tables, checked in order. Full and unsupported carry the
// specific tokens; anything unmatched falls back to limited, which is the
// safe default for an unknown provider.
var (
	fullSupport = []string{
		"s3", "b2", "backblaze", "wasabi", "gcs", "googlecloud",
		"azureblob", "minio", "digitalocean", "spaces", "cloudflare",
		"r2", "scaleway", "oracle", "storj", "filebase",
	}
	unsupported = []string{
		"sftp", "ftp", "webdav", "local", "proton", "nextcloud",
		"owncloud", "seafile", "icloud",
	}
)

// CapabilityFor returns the multi-thread capability for a remote name.
// Unknown providers default to Limited, never to an error.
func CapabilityFor(remoteName string) Capability {
	name := strings.ToLower(remoteName)
	for _, token := range fullSupport {
		if strings.Contains(name, token) {
			return Full
		}
	}
	for _, token := range unsupported {
		if strings.Contains(name, token) {
			return Unsupported
		}
	}
	return Limited
}

// chunkEntry binds a provider token to its preferred upload chunk size and,
// where the engine exposes one, the backend-specific chunk-size flag.
type chunkEntry struct {
	token   string
	sizeMB  int
	flagFmt string // e.g. "--drive-chunk-size=%dM"; empty = no native chunking flag
}

// Ordered most-specific first so "googlecloud" wins over "google" style
// overlaps. Sizes follow each provider's documented sweet spot: object
// stores take big parallel parts, resumable-upload APIs prefer smaller
// parts, Dropbox wants very large ones.
var chunkTable = []chunkEntry{
	{"googlecloud", 16, "--gcs-chunk-size=%dM"},
	{"gcs", 16, "--gcs-chunk-size=%dM"},
	{"googledrive", 8, "--drive-chunk-size=%dM"},
	{"googlephotos", 8, ""},
	{"gdrive", 8, "--drive-chunk-size=%dM"},
	{"dropbox", 150, "--dropbox-chunk-size=%dM"},
	{"onedrive", 10, "--onedrive-chunk-size=%dM"},
	{"sharepoint", 10, "--onedrive-chunk-size=%dM"},
	{"backblaze", 16, "--b2-chunk-size=%dM"},
	{"b2", 16, "--b2-chunk-size=%dM"},
	{"wasabi", 16, "--s3-chunk-size=%dM"},
	{"digitalocean", 16, "--s3-chunk-size=%dM"},
	{"spaces", 16, "--s3-chunk-size=%dM"},
	{"cloudflare", 16, "--s3-chunk-size=%dM"},
	{"r2", 16, "--s3-chunk-size=%dM"},
	{"scaleway", 16, "--s3-chunk-size=%dM"},
	{"filebase", 16, "--s3-chunk-size=%dM"},
	{"oracle", 16, "--s3-chunk-size=%dM"},
	{"minio", 16, "--s3-chunk-size=%dM"},
	{"s3", 16, "--s3-chunk-size=%dM"},
	{"azureblob", 16, "--azureblob-chunk-size=%dM"},
	{"azurefiles", 16, ""},
	{"alibaba", 16, ""},
	{"oss", 16, ""},
	{"storj", 16, ""},
	{"proton", 4, ""},
	{"pcloud", 5, "--pcloud-chunk-size=%dM"},
	{"mega", 20, "--mega-chunk-size=%dM"},
	{"jottacloud", 8, "--jottacloud-chunk-size=%dM"},
	{"putio", 8, "--putio-chunk-size=%dM"},
	{"box", 8, "--box-chunk-size=%dM"},
	{"nextcloud", 32, ""},
	{"owncloud", 32, ""},
	{"webdav", 32, ""},
	{"sftp", 32, ""},
	{"ftp", 32, ""},
	{"seafile", 8, ""},
	{"koofr", 8, ""},
	{"yandex", 8, ""},
	{"mailru", 8, ""},
	{"icloud", 64, ""},
	{"local", 64, ""},
}

// DefaultChunkSizeMB is used when no provider token matches.
const DefaultChunkSizeMB = 8

// ChunkSizeMB returns the preferred upload chunk size in MB for a remote.
func ChunkSizeMB(remoteName string) int {
	name := strings.ToLower(remoteName)
	for _, e := range chunkTable {
		if strings.Contains(name, e.token) {
			return e.sizeMB
		}
	}
	return DefaultChunkSizeMB
}

// ChunkSizeFlag returns the engine flag that sets the backend chunk size for
// a remote, e.g. "--drive-chunk-size=8M". Providers with no native chunking
// concept (local disk, SFTP) return "".
func ChunkSizeFlag(remoteName string) string {
	name := strings.ToLower(remoteName)
	for _, e := range chunkTable {
		if strings.Contains(name, e.token) {
			if e.flagFmt == "" {
				return ""
			}
			return formatChunkFlag(e.flagFmt, e.sizeMB)
		}
	}
	return ""
}

func formatChunkFlag(format string, sizeMB int) string {
	return fmt.Sprintf(format, sizeMB)
}

// fastListSupport lists provider families whose APIs can list recursively in
// few round-trips. Anything else, including unknown providers, stays off:
// --fast-list against a backend that fakes it burns memory for nothing.
var fastListSupport = []string{
	"googledrive", "gdrive", "onedrive", "sharepoint", "dropbox", "box",
	"s3", "b2", "backblaze", "wasabi", "gcs", "googlecloud", "azureblob",
	"digitalocean", "spaces", "cloudflare", "r2", "scaleway", "storj",
	"filebase", "minio",
}

// SupportsFastList reports whether a remote is on the fast-list allow-list.
func SupportsFastList(remoteName string) bool {
	name := strings.ToLower(remoteName)
	// Unsupported transports are excluded outright even if a token like
	// "s3" happens to appear in the remote's name alongside them.
	for _, token := range []string{"proton", "local", "sftp", "ftp", "webdav"} {
		if strings.Contains(name, token) {
			return false
		}
	}
	for _, token := range fastListSupport {
		if strings.Contains(name, token) {
			return true
		}
	}
	return false
}
