package engine

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CoreStats is the engine's periodic stats object, emitted one JSON object
// per line when JSON logging is on.
type CoreStats struct {
	Bytes          int64          `json:"bytes"`
	TotalBytes     int64          `json:"totalBytes"`
	Speed          float64        `json:"speed"`
	Transfers      int            `json:"transfers"`
	TotalTransfers int            `json:"totalTransfers"`
	Errors         int            `json:"errors"`
	FatalError     bool           `json:"fatalError"`
	Transferring   []TransferStat `json:"transferring,omitempty"`
}

// TransferStat describes one in-flight file within a stats object.
type TransferStat struct {
	Name       string  `json:"name"`
	Size       int64   `json:"size"`
	Bytes      int64   `json:"bytes"`
	Percentage int     `json:"percentage"`
	Speed      float64 `json:"speed"`
}

// ParseStatsLine decodes one output line as a stats object. Returns false
// for anything that is not a JSON object carrying stats fields.
func ParseStatsLine(line string) (CoreStats, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return CoreStats{}, false
	}
	var stats CoreStats
	if err := json.Unmarshal([]byte(line), &stats); err != nil {
		return CoreStats{}, false
	}
	return stats, true
}

// Progress is a parsed plain-text "Transferred:" line, the engine's human
// progress format used when JSON logging is off.
type Progress struct {
	BytesDone  int64
	TotalBytes int64
	Percentage int
	Speed      string
}

// ParseProgressLine parses lines like
//
//	Transferred:   1.371 MiB / 1 GiB, 0%, 50 MiB/s, ETA 3m
//
// Returns false for any other line, including the file-count form of the
// same prefix.
func ParseProgressLine(line string) (Progress, bool) {
	i := strings.Index(line, "Transferred:")
	if i < 0 {
		return Progress{}, false
	}
	rest := strings.TrimSpace(line[i+len("Transferred:"):])
	parts := strings.Split(rest, ",")
	if len(parts) < 2 {
		return Progress{}, false
	}

	sizes := strings.Split(parts[0], "/")
	if len(sizes) != 2 {
		return Progress{}, false
	}
	done, ok1 := parseSize(strings.TrimSpace(sizes[0]))
	total, ok2 := parseSize(strings.TrimSpace(sizes[1]))
	if !ok1 || !ok2 {
		return Progress{}, false
	}

	p := Progress{BytesDone: done, TotalBytes: total}

	pct := strings.TrimSpace(parts[1])
	pct = strings.TrimSuffix(pct, "%")
	if n, err := strconv.Atoi(pct); err == nil {
		p.Percentage = n
	}

	for _, part := range parts[2:] {
		part = strings.TrimSpace(part)
		if strings.HasSuffix(part, "/s") {
			p.Speed = part
			break
		}
	}

	return p, true
}

// parseSize converts a human size token like "1.371 MiB" or "512 B" to bytes.
func parseSize(s string) (int64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}

	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}

	unit := "B"
	if len(fields) > 1 {
		unit = fields[1]
	}

	var mult float64
	switch strings.ToUpper(strings.TrimSuffix(unit, "ytes")) {
	case "B":
		mult = 1
	case "KIB", "KB", "K":
		mult = 1 << 10
	case "MIB", "MB", "M":
		mult = 1 << 20
	case "GIB", "GB", "G":
		mult = 1 << 30
	case "TIB", "TB", "T":
		mult = 1 << 40
	default:
		return 0, false
	}

	return int64(value * mult), true
}
