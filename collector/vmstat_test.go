package collector

import (
	"errors"
	"testing"
)

const sampleVMStat = `Mach Virtual Memory Statistics: (page size of 16384 bytes)
Pages free:                               44327.
Pages active:                            712893.
Pages inactive:                          688244.
Pages speculative:                         9551.
Pages wired down:                        131034.
Pages occupied by compressor:            409395.
"Translation faults":                 123456789.
Pageins:                                8765432.
`

func TestParsePageSize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int64
	}{
		{"announced in header", sampleVMStat, 16384},
		{"other size", "Mach Virtual Memory Statistics: (page size of 4096 bytes)", 4096},
		{"phrase absent", "Pages free: 100.", 4096},
		{"empty text", "", 4096},
		{"unparsable number", "(page size of lots bytes)", 4096},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parsePageSize(tt.text); got != tt.want {
				t.Errorf("parsePageSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseVMStat(t *testing.T) {
	pages := parseVMStat(sampleVMStat)

	want := map[string]int64{
		labelPagesFree:       44327,
		labelPagesActive:     712893,
		labelPagesInactive:   688244,
		labelPagesWired:      131034,
		labelPagesCompressed: 409395,
	}
	for label, count := range want {
		if pages[label] != count {
			t.Errorf("pages[%q] = %d, want %d", label, pages[label], count)
		}
	}

	// The header value is not an integer and must have been dropped.
	if _, ok := pages["Mach Virtual Memory Statistics"]; ok {
		t.Error("header line should not produce a counter")
	}
}

func TestParseVMStatMalformedLines(t *testing.T) {
	text := "Pages free: 100.\nPages active: not-a-number.\nno separator here\nPages inactive: 50\n"
	pages := parseVMStat(text)

	if len(pages) != 2 {
		t.Fatalf("got %d counters, want 2: %v", len(pages), pages)
	}
	if pages["Pages free"] != 100 {
		t.Errorf("Pages free = %d, want 100", pages["Pages free"])
	}
	if pages["Pages inactive"] != 50 {
		t.Errorf("Pages inactive = %d, want 50", pages["Pages inactive"])
	}
}

func TestParseSwapUsedMB(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int64
	}{
		{"megabytes", "total = 1024.00M  used = 256.00M  free = 768.00M  (encrypted)", 256},
		{"gigabytes", "total = 2.00G  used = 1.50G  free = 0.50G", 1536},
		{"no used token", "total = 100M", 0},
		{"bare float", "used = 12.75", 12},
		{"lowercase suffix", "used = 64.00m", 64},
		{"truncates toward zero", "used = 0.99M", 0},
		{"empty text", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSwapUsedMB(tt.text)
			if err != nil {
				t.Fatalf("parseSwapUsedMB(%q) error: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("parseSwapUsedMB(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseSwapUsedMBGarbageValue(t *testing.T) {
	got, err := parseSwapUsedMB("total = 1G used = garbage")
	if got != 0 {
		t.Errorf("got %d, want 0", got)
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("want *ParseError, got %v", err)
	}
}

func TestPagesToMB(t *testing.T) {
	// 44327 pages of 16 KiB = 692 MB with floor division.
	if got := pagesToMB(44327, 16384); got != 692 {
		t.Errorf("pagesToMB = %d, want 692", got)
	}
	if got := pagesToMB(0, 16384); got != 0 {
		t.Errorf("pagesToMB(0) = %d, want 0", got)
	}
}
