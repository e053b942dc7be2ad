package collector

import (
	"strconv"
	"strings"
)

// defaultPageSize is the fallback when the counter header does not announce
// a page size. Parsing the header must never fail a cycle.
const defaultPageSize = 4096

// Counter labels consumed downstream of parseVMStat.
const (
	labelPagesFree       = "Pages free"
	labelPagesActive     = "Pages active"
	labelPagesInactive   = "Pages inactive"
	labelPagesWired      = "Pages wired down"
	labelPagesCompressed = "Pages occupied by compressor"
)

// parsePageSize extracts N from a "page size of N bytes" phrase anywhere in
// the counter text. Returns defaultPageSize when the phrase is absent or the
// number is unparsable.
func parsePageSize(text string) int64 {
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "page size of") {
			continue
		}
		fields := strings.Fields(line)
		for i, f := range fields {
			if f == "of" && i+1 < len(fields) {
				if n, err := strconv.ParseInt(fields[i+1], 10, 64); err == nil {
					return n
				}
			}
		}
	}
	return defaultPageSize
}

// parseVMStat turns "label: value" counter lines into a label -> count map.
// A line is kept only if splitting on ":" yields exactly a label and a
// trailing integer (a trailing period is tolerated); anything else is
// dropped silently.
func parseVMStat(text string) map[string]int64 {
	pages := make(map[string]int64)
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, ":") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || strings.Contains(parts[1], ":") {
			continue
		}
		label := strings.TrimSpace(parts[0])
		value := strings.TrimSuffix(strings.TrimSpace(parts[1]), ".")
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		pages[label] = n
	}
	return pages
}

// parseSwapUsedMB extracts used swap in MB from swap-usage text such as
//
//	total = 1024.00M  used = 256.00M  free = 768.00M  (encrypted)
//
// M means megabytes, G gigabytes (x1024), both truncated toward zero; a bare
// number is taken as float MB. A missing "used" token yields 0, not an error.
// A present but uninterpretable value is a ParseError; callers default to 0.
func parseSwapUsedMB(text string) (int64, error) {
	tokens := strings.Fields(strings.ReplaceAll(text, "=", " "))
	for i, tok := range tokens {
		if !strings.EqualFold(tok, "used") || i+1 >= len(tokens) {
			continue
		}
		val := tokens[i+1]
		switch {
		case strings.HasSuffix(val, "M"), strings.HasSuffix(val, "m"):
			if f, err := strconv.ParseFloat(val[:len(val)-1], 64); err == nil {
				return int64(f), nil
			}
		case strings.HasSuffix(val, "G"), strings.HasSuffix(val, "g"):
			if f, err := strconv.ParseFloat(val[:len(val)-1], 64); err == nil {
				return int64(f * 1024), nil
			}
		default:
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return int64(f), nil
			}
		}
		return 0, &ParseError{Input: val, Reason: "swap used value is not a number with optional M/G suffix"}
	}
	return 0, nil
}

// pagesToMB converts a page count to megabytes with floor division.
func pagesToMB(pages, pageSize int64) int64 {
	return pages * pageSize / (1024 * 1024)
}

// bytesToMB converts a byte count to megabytes with floor division.
func bytesToMB(b uint64) int64 {
	return int64(b / (1024 * 1024))
}
