// Package bytesize parses and formats human-readable sizes such as the
// upload ceiling ("100MiB") used in configuration and on the command line.
package bytesize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ByteSize is a size in bytes. It decodes from plain numbers ("1048576")
// or a number with a unit: binary Ki/Mi/Gi/Ti (optionally with a trailing
// B), decimal K/M/G/T (optionally KB...), or B.
//
// ByteSize implements pflag.Value so it can back a command-line flag.
type ByteSize uint64

const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB
	TB ByteSize = 1000 * GB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
	TiB ByteSize = 1024 * GiB
)

var sizePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([a-z]*)\s*$`)

var units = map[string]ByteSize{
	"": B, "b": B,
	"k": KB, "kb": KB,
	"m": MB, "mb": MB,
	"g": GB, "gb": GB,
	"t": TB, "tb": TB,
	"ki": KiB, "kib": KiB,
	"mi": MiB, "mib": MiB,
	"gi": GiB, "gib": GiB,
	"ti": TiB, "tib": TiB,
}

// Parse converts s into a ByteSize.
func Parse(s string) (ByteSize, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	unit, ok := units[strings.ToLower(m[2])]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit %q", m[2])
	}

	if !strings.Contains(m[1], ".") {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
		}
		if unit > 1 && n > ^uint64(0)/uint64(unit) {
			return 0, fmt.Errorf("byte size %q overflows", s)
		}
		return ByteSize(n) * unit, nil
	}

	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	return ByteSize(f * float64(unit)), nil
}

// MustParse is Parse for constants; it panics on error.
func MustParse(s string) ByteSize {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

// UnmarshalText lets mapstructure and yaml decode sizes from strings.
func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// MarshalText writes the size in a form Parse accepts.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.Canonical()), nil
}

// Canonical renders the size exactly, using the largest binary unit that
// divides it evenly.
func (b ByteSize) Canonical() string {
	for _, u := range []struct {
		size ByteSize
		name string
	}{{TiB, "Ti"}, {GiB, "Gi"}, {MiB, "Mi"}, {KiB, "Ki"}} {
		if b >= u.size && b%u.size == 0 {
			return strconv.FormatUint(uint64(b/u.size), 10) + u.name
		}
	}
	return strconv.FormatUint(uint64(b), 10)
}

// String returns an approximate human-readable size.
func (b ByteSize) String() string {
	switch {
	case b >= TiB:
		return fmt.Sprintf("%.2fTiB", float64(b)/float64(TiB))
	case b >= GiB:
		return fmt.Sprintf("%.2fGiB", float64(b)/float64(GiB))
	case b >= MiB:
		return fmt.Sprintf("%.2fMiB", float64(b)/float64(MiB))
	case b >= KiB:
		return fmt.Sprintf("%.2fKiB", float64(b)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// Set implements pflag.Value.
func (b *ByteSize) Set(s string) error {
	return b.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (b *ByteSize) Type() string {
	return "bytesize"
}

// Int64 returns the size as an int64, saturating at the maximum int64.
func (b ByteSize) Int64() int64 {
	if uint64(b) > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(b)
}
