package conversion

import (
	"fmt"
	"strconv"
	"strings"
)

// Format is an output audio container
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
	FormatAAC Format = "aac"
)

// DefaultFormat is used when neither flags nor config name a format
const DefaultFormat = FormatMP3

var supportedFormats = []Format{FormatMP3, FormatWAV, FormatAAC}

// SupportedFormats returns the allowed output formats in display order
func SupportedFormats() []Format {
	return append([]Format(nil), supportedFormats...)
}

// ParseFormat parses a format name, ignoring case and surrounding whitespace
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unsupported format %q: expected one of mp3, wav, aac", s)
	}
	return f, nil
}

// Valid reports whether f is one of the supported formats
func (f Format) Valid() bool {
	for _, s := range supportedFormats {
		if f == s {
			return true
		}
	}
	return false
}

// Extension returns the file extension including the leading dot
func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) String() string {
	return string(f)
}

// Bitrate is an audio bitrate in kbps
type Bitrate int

// DefaultBitrate is used when neither flags nor config name a bitrate
const DefaultBitrate Bitrate = 192

var supportedBitrates = []Bitrate{64, 128, 192, 256, 320}

// SupportedBitrates returns the allowed bitrates in ascending order
func SupportedBitrates() []Bitrate {
	return append([]Bitrate(nil), supportedBitrates...)
}

// ParseBitrate accepts "192", "192k" or "192K"
func ParseBitrate(s string) (Bitrate, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(s), "k"), "K")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid bitrate %q: expected kbps such as 192 or 192k", s)
	}
	b := Bitrate(n)
	if !b.Valid() {
		return 0, fmt.Errorf("unsupported bitrate %q: expected one of 64, 128, 192, 256, 320", s)
	}
	return b, nil
}

// Valid reports whether b is one of the supported bitrates
func (b Bitrate) Valid() bool {
	for _, s := range supportedBitrates {
		if b == s {
			return true
		}
	}
	return false
}

// Kbps returns the bitrate as a plain integer
func (b Bitrate) Kbps() int {
	return int(b)
}

// String returns the bitrate in ffmpeg notation, e.g. "192k"
func (b Bitrate) String() string {
	return strconv.Itoa(int(b)) + "k"
}
