// Package classify maps raw engine output to a closed set of typed transfer
// errors. Classify returns nil for ordinary progress text; every line that
// carries an error marker maps to exactly one variant, with Unknown as the
// catch-all. The taxonomy is sealed: callers switch on the concrete types and
// read the derived Title/UserMessage/Retryable/Critical properties, never the
// raw engine text.
package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TransferError is the classification result. Implementations are the variant
// structs in this package and nothing else.
type TransferError interface {
	// Title is a short category label suitable for a notification heading.
	Title() string
	// UserMessage is the human-readable description. Structured variants
	// build it from their fields; only Unknown carries engine text.
	UserMessage() string
	// Retryable reports whether an automatic retry is reasonable.
	Retryable() bool
	// Critical reports whether the condition should halt a batch rather
	// than let it continue.
	Critical() bool

	transferError()
}

// QuotaExceeded means the destination provider has no storage left.
type QuotaExceeded struct {
	Provider string
}

func (QuotaExceeded) Title() string { return "Storage Full" }
func (e QuotaExceeded) UserMessage() string {
	return fmt.Sprintf("%s storage is full. Free up space or upgrade your storage plan.", e.Provider)
}
func (QuotaExceeded) Retryable() bool { return false }
func (QuotaExceeded) Critical() bool  { return true }
func (QuotaExceeded) transferError() {}

// RateLimitExceeded means the provider is throttling requests. RetryAfter is
// the provider-suggested wait in seconds when one was parseable.
type RateLimitExceeded struct {
	Provider   string
	RetryAfter *int
}

func (RateLimitExceeded) Title() string { return "Rate Limited" }
func (e RateLimitExceeded) UserMessage() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("The provider is rate limiting requests. Retry after %d seconds.", *e.RetryAfter)
	}
	return "The provider is rate limiting requests. Please wait a moment and try again."
}
func (RateLimitExceeded) Retryable() bool { return true }
func (RateLimitExceeded) Critical() bool  { return false }
func (RateLimitExceeded) transferError() {}

// AuthenticationFailed means the provider rejected the stored credentials.
type AuthenticationFailed struct {
	Provider string
	Reason   string
}

func (AuthenticationFailed) Title() string { return "Authentication Failed" }
func (e AuthenticationFailed) UserMessage() string {
	return fmt.Sprintf("%s authentication failed: %s. Check your account settings and reconnect.", e.Provider, e.Reason)
}
func (AuthenticationFailed) Retryable() bool { return false }
func (AuthenticationFailed) Critical() bool  { return true }
func (AuthenticationFailed) transferError() {}

// TokenExpired means a previously valid OAuth session has lapsed.
type TokenExpired struct {
	Provider string
}

func (TokenExpired) Title() string { return "Session Expired" }
func (e TokenExpired) UserMessage() string {
	return fmt.Sprintf("Your %s session expired. Please reconnect your account.", e.Provider)
}
func (TokenExpired) Retryable() bool { return false }
func (TokenExpired) Critical() bool  { return true }
func (TokenExpired) transferError() {}

// ConnectionTimeout is a network-level timeout establishing or holding the
// connection.
type ConnectionTimeout struct{}

func (ConnectionTimeout) Title() string { return "Connection Error" }
func (ConnectionTimeout) UserMessage() string {
	return "Connection timed out. Check your internet connection and try again."
}
func (ConnectionTimeout) Retryable() bool { return true }
func (ConnectionTimeout) Critical() bool  { return false }
func (ConnectionTimeout) transferError() {}

// ConnectionFailed is a refused or reset connection.
type ConnectionFailed struct {
	Reason string
}

func (ConnectionFailed) Title() string { return "Connection Error" }
func (e ConnectionFailed) UserMessage() string {
	return fmt.Sprintf("Connection failed: %s. Check your internet connection and try again.", e.Reason)
}
func (ConnectionFailed) Retryable() bool { return true }
func (ConnectionFailed) Critical() bool  { return false }
func (ConnectionFailed) transferError() {}

// NetworkUnreachable means no route to the provider at all.
type NetworkUnreachable struct{}

func (NetworkUnreachable) Title() string { return "Network Unavailable" }
func (NetworkUnreachable) UserMessage() string {
	return "The network is unreachable. Check your internet connection."
}
func (NetworkUnreachable) Retryable() bool { return true }
func (NetworkUnreachable) Critical() bool  { return false }
func (NetworkUnreachable) transferError() {}

// DNSResolutionFailed means the provider hostname did not resolve.
type DNSResolutionFailed struct {
	Host string
}

func (DNSResolutionFailed) Title() string { return "Connection Error" }
func (e DNSResolutionFailed) UserMessage() string {
	return fmt.Sprintf("Could not resolve %s. Check your internet connection and DNS settings.", e.Host)
}
func (DNSResolutionFailed) Retryable() bool { return true }
func (DNSResolutionFailed) Critical() bool  { return false }
func (DNSResolutionFailed) transferError() {}

// FileTooLarge means a single file exceeds the provider's upload limit.
type FileTooLarge struct {
	FileName      string
	MaxSize       int64
	ProviderLimit int64
}

func (FileTooLarge) Title() string { return "File Too Large" }
func (e FileTooLarge) UserMessage() string {
	if e.ProviderLimit > 0 {
		return fmt.Sprintf("%s is too large for this provider (limit %s).", e.FileName, formatBytes(e.ProviderLimit))
	}
	return fmt.Sprintf("%s is too large for this provider.", e.FileName)
}
func (FileTooLarge) Retryable() bool { return false }
func (FileTooLarge) Critical() bool  { return false }
func (FileTooLarge) transferError() {}

// ChecksumMismatch means post-transfer verification failed.
type ChecksumMismatch struct {
	FileName string
}

func (ChecksumMismatch) Title() string { return "Checksum Mismatch" }
func (e ChecksumMismatch) UserMessage() string {
	return fmt.Sprintf("Checksum verification failed for %s. The file may be corrupted.", e.FileName)
}
func (ChecksumMismatch) Retryable() bool { return false }
func (ChecksumMismatch) Critical() bool  { return true }
func (ChecksumMismatch) transferError() {}

// EncryptionError covers crypt-layer failures on either side of a transfer.
type EncryptionError struct {
	Details string
}

func (EncryptionError) Title() string { return "Encryption Error" }
func (e EncryptionError) UserMessage() string {
	return fmt.Sprintf("Encryption error: %s. Check your encryption password.", e.Details)
}
func (EncryptionError) Retryable() bool { return false }
func (EncryptionError) Critical() bool  { return true }
func (EncryptionError) transferError() {}

// PartialFailure means a batch finished with some files failed.
type PartialFailure struct {
	Succeeded int
	Failed    int
	Errors    []string
}

func (PartialFailure) Title() string { return "Partial Failure" }
func (e PartialFailure) UserMessage() string {
	return fmt.Sprintf("%d of %d files transferred, %d failed.", e.Succeeded, e.Succeeded+e.Failed, e.Failed)
}
func (PartialFailure) Retryable() bool { return true }
func (PartialFailure) Critical() bool  { return false }
func (PartialFailure) transferError() {}

// Cancelled means the user or a shutdown aborted the transfer.
type Cancelled struct{}

func (Cancelled) Title() string       { return "Cancelled" }
func (Cancelled) UserMessage() string { return "The transfer was cancelled." }
func (Cancelled) Retryable() bool     { return false }
func (Cancelled) Critical() bool      { return false }
func (Cancelled) transferError()      {}

// Timeout is an operation-level timeout distinct from a connection timeout.
type Timeout struct {
	DurationSeconds int
}

func (Timeout) Title() string { return "Timeout" }
func (e Timeout) UserMessage() string {
	if e.DurationSeconds > 0 {
		return fmt.Sprintf("The operation timed out after %d seconds.", e.DurationSeconds)
	}
	return "The operation timed out."
}
func (Timeout) Retryable() bool { return true }
func (Timeout) Critical() bool  { return false }
func (Timeout) transferError()  {}

// Unknown carries any marker-bearing line that matched no other variant.
type Unknown struct {
	Message string
}

func (Unknown) Title() string         { return "Transfer Error" }
func (e Unknown) UserMessage() string { return e.Message }
func (Unknown) Retryable() bool       { return false }
func (Unknown) Critical() bool        { return false }
func (Unknown) transferError()        {}

var retryAfterRe = regexp.MustCompile(`retry (?:after|in) (\d+)`)

// Classify inspects raw engine output and returns a typed error, or nil when
// no line carries an error marker. Only the first marker-bearing line is
// classified; phrase checks run in a fixed order because several phrases are
// substrings of others.
func Classify(raw string) TransferError {
	line := errorLine(raw)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	switch {
	case containsAny(lower, "storage quota has been exceeded", "storagequotaexceeded",
		"quotaexceeded", "quota exceeded", "insufficient_storage", "insufficient storage",
		"not enough space", "storage is full"):
		return QuotaExceeded{Provider: quotaProvider(lower)}

	case containsAny(lower, "ratelimitexceeded", "rate limit", "too many requests", "too_many_requests"):
		return RateLimitExceeded{
			Provider:   rateLimitProvider(lower),
			RetryAfter: parseRetryAfter(lower),
		}

	case containsAny(lower, "token has expired", "token expired", "expired token", "reauthenticate"):
		return TokenExpired{Provider: providerName(lower)}

	case containsAny(lower, "authentication failed", "invalid credentials", "unauthorized", "401"):
		return AuthenticationFailed{
			Provider: providerName(lower),
			Reason:   reasonAfter(line, "authentication failed"),
		}

	case containsAny(lower, "no such host", "lookup failed", "dns"):
		return DNSResolutionFailed{Host: hostFrom(line)}

	case strings.Contains(lower, "connection timed out") ||
		(strings.Contains(lower, "timed out") && strings.Contains(lower, "connection")):
		return ConnectionTimeout{}

	case containsAny(lower, "network is unreachable", "network unreachable"):
		return NetworkUnreachable{}

	case containsAny(lower, "connection refused", "connection reset", "connection failed", "broken pipe"):
		return ConnectionFailed{Reason: strings.TrimSpace(line)}

	case containsAny(lower, "checksum mismatch", "corrupted on transfer", "hash differ"):
		return ChecksumMismatch{FileName: fileNameFrom(line)}

	case containsAny(lower, "file too large", "too large", "exceeds the maximum"):
		return FileTooLarge{FileName: fileNameFrom(line)}

	case containsAny(lower, "failed to decrypt", "failed to encrypt", "bad decryption", "cipher"):
		return EncryptionError{Details: strings.TrimSpace(line)}

	case containsAny(lower, "context canceled", "cancelled", "canceled"):
		return Cancelled{}

	case containsAny(lower, "timed out", "timeout"):
		return Timeout{DurationSeconds: parseSeconds(lower)}

	default:
		return Unknown{Message: strings.TrimSpace(line)}
	}
}

// errorLine returns the first line of raw that carries an error marker, or ""
// when none does.
func errorLine(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if strings.Contains(line, "ERROR") || strings.Contains(line, "FATAL") ||
			strings.Contains(line, "CRITICAL") {
			return line
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// quotaProvider resolves the provider behind a quota phrase. The Google API
// phrasing is distinctive; every generic quota phrase falls back to Dropbox.
func quotaProvider(lower string) string {
	if containsAny(lower, "googleapi", "drive storage quota", "storagequotaexceeded") {
		return "Google Drive"
	}
	return "Dropbox"
}

func rateLimitProvider(lower string) string {
	switch {
	case containsAny(lower, "googleapi", "ratelimitexceeded"):
		return "Google Drive"
	case strings.Contains(lower, "too_many_requests"):
		return "Dropbox"
	default:
		return providerName(lower)
	}
}

// providerName takes a best-effort guess at the provider mentioned in a line.
// Returns "" when nothing recognizable appears.
func providerName(lower string) string {
	switch {
	case containsAny(lower, "googleapi", "google drive", "drive.google"):
		return "Google Drive"
	case strings.Contains(lower, "dropbox"):
		return "Dropbox"
	case strings.Contains(lower, "onedrive"):
		return "OneDrive"
	case strings.Contains(lower, "proton"):
		return "Proton Drive"
	case strings.Contains(lower, "jottacloud"):
		return "Jottacloud"
	default:
		return ""
	}
}

func parseRetryAfter(lower string) *int {
	m := retryAfterRe.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

var secondsRe = regexp.MustCompile(`after (\d+) seconds`)

func parseSeconds(lower string) int {
	m := secondsRe.FindStringSubmatch(lower)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// hostFrom extracts the hostname following a "no such host" phrase. Falls
// back to "unknown" when the line has no extractable host.
func hostFrom(line string) string {
	lower := strings.ToLower(line)
	i := strings.Index(lower, "no such host")
	if i < 0 {
		return "unknown"
	}
	rest := strings.TrimSpace(line[i+len("no such host"):])
	rest = strings.TrimPrefix(rest, ":")
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.Trim(fields[0], `"',`)
}

// fileNameFrom extracts the filename following a "for file" or "for" phrase.
func fileNameFrom(line string) string {
	lower := strings.ToLower(line)
	for _, marker := range []string{"for file ", "for "} {
		if i := strings.Index(lower, marker); i >= 0 {
			fields := strings.Fields(line[i+len(marker):])
			if len(fields) > 0 {
				return strings.Trim(fields[0], `"',`)
			}
		}
	}
	return ""
}

// reasonAfter returns the text following "<marker>:" in line, or the trimmed
// line itself when the marker is absent.
func reasonAfter(line, marker string) string {
	lower := strings.ToLower(line)
	i := strings.Index(lower, marker)
	if i < 0 {
		return strings.TrimSpace(line)
	}
	rest := strings.TrimSpace(line[i+len(marker):])
	rest = strings.TrimPrefix(rest, ":")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return strings.TrimSpace(line)
	}
	return rest
}

func formatBytes(n int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1f GB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.0f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.0f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
