package pkg

import (
	"errors"
	"fmt"
	"time"

	"github.com/djherbis/times"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoExifDate is returned when EXIF data is found but no suitable date tag is present.
var ErrNoExifDate = errors.New("no EXIF date tag found")

// ErrNoCreationTime is returned when the filesystem does not record a file's creation time.
var ErrNoCreationTime = errors.New("creation time not available")

const (
	// exifDateLayout is the shape camera firmware writes into DateTimeOriginal.
	exifDateLayout = "2006:01:02 15:04:05"
	// captureDateLayout nests the day folder under its year.
	captureDateLayout = "2006/2006-01-02"
	// fileDateLayout is used for dates taken from file timestamps.
	fileDateLayout = "2006-01-02_15-04-05"
)

// DateSource names where a resolved date came from.
type DateSource int

const (
	DateSourceExif DateSource = iota
	DateSourceBirthTime
	DateSourceModTime
)

func (s DateSource) String() string {
	switch s {
	case DateSourceExif:
		return "EXIF DateTimeOriginal"
	case DateSourceBirthTime:
		return "file creation time"
	case DateSourceModTime:
		return "file modification time"
	default:
		return "unknown"
	}
}

// DateResolver turns a photo path into its canonical date string.
//
// The capture date from EXIF DateTimeOriginal wins and yields "YYYY/YYYY-MM-DD".
// Without it the file's creation time is used and yields "YYYY-MM-DD_HH-MM-SS".
// The zero value is ready to use.
type DateResolver struct {
	// Decoder reads the metadata; ExifDecoder when nil.
	Decoder Decoder
	// Location converts file timestamps; time.Local when nil.
	Location *time.Location
	// AllowModTime falls back to the modification time when the
	// filesystem cannot report a creation time.
	AllowModTime bool
	// Stat reads file timestamps; times.Stat when nil.
	Stat func(path string) (times.Timespec, error)
}

// Resolve returns the canonical date string for path.
func (r *DateResolver) Resolve(path string) (string, error) {
	date, _, err := r.ResolveWithSource(path)
	return date, err
}

// ResolveWithSource is Resolve that also reports which timestamp was used.
func (r *DateResolver) ResolveWithSource(path string) (string, DateSource, error) {
	if date, err := r.captureDate(path); err == nil {
		return date, DateSourceExif, nil
	}
	return r.fileDate(path)
}

func (r *DateResolver) decoder() Decoder {
	if r.Decoder == nil {
		return ExifDecoder{}
	}
	return r.Decoder
}

func (r *DateResolver) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// captureDate reads DateTimeOriginal. Any failure, including a malformed
// timestamp, is reported as an error so the caller falls back to file times.
func (r *DateResolver) captureDate(path string) (string, error) {
	ext := Extract(r.decoder(), path)
	if ext.Outcome != Decoded {
		return "", ext.Err
	}
	tag, ok := ext.Tags[exif.DateTimeOriginal]
	if !ok || tag == nil {
		return "", ErrNoExifDate
	}
	t, err := parseExifDateTime(tag)
	if err != nil {
		return "", newError(KindDateParse, "parse exif date", path, err)
	}
	return t.Format(captureDateLayout), nil
}

// parseExifDateTime accepts only a textual tag in the exact firmware layout.
func parseExifDateTime(tag *tiff.Tag) (time.Time, error) {
	if tag.Format() != tiff.StringVal {
		return time.Time{}, fmt.Errorf("date tag is not textual (format %v)", tag.Format())
	}
	dateStr, err := tag.StringVal()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get string value from EXIF date tag: %w", err)
	}
	t, err := time.Parse(exifDateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse EXIF date string %q: %w", dateStr, err)
	}
	return t, nil
}

func (r *DateResolver) fileDate(path string) (string, DateSource, error) {
	stat := r.Stat
	if stat == nil {
		stat = times.Stat
	}
	ts, err := stat(path)
	if err != nil {
		return "", 0, newError(KindIO, "stat", path, err)
	}

	var t time.Time
	var source DateSource
	switch {
	case ts.HasBirthTime():
		t, source = ts.BirthTime(), DateSourceBirthTime
	case r.AllowModTime:
		t, source = ts.ModTime(), DateSourceModTime
	default:
		return "", 0, newError(KindDateParse, "creation time", path, ErrNoCreationTime)
	}
	return t.In(r.location()).Format(fileDateLayout), source, nil
}
