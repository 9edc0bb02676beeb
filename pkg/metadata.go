package pkg

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Tags maps EXIF field names to the decoded tags of one file.
type Tags map[exif.FieldName]*tiff.Tag

// Decoder reads the metadata tags embedded in a file.
type Decoder interface {
	Decode(path string) (Tags, error)
}

// ExifDecoder decodes EXIF data with goexif. It handles JPEG files and
// TIFF-based containers, which covers most vendor RAW formats.
type ExifDecoder struct{}

type tagCollector Tags

func (c tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c[name] = tag
	return nil
}

// Decode opens photoPath and returns every EXIF field it carries.
// Non-critical goexif errors (a bad maker note, a broken sub-IFD) keep
// whatever was decoded before the failure.
func (ExifDecoder) Decode(photoPath string) (Tags, error) {
	file, err := os.Open(photoPath)
	if err != nil {
		return nil, newError(KindIO, "open", photoPath, err)
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, newError(KindDecode, "decode exif", photoPath, err)
	}

	tags := make(tagCollector)
	if err := x.Walk(tags); err != nil {
		return nil, newError(KindDecode, "walk exif", photoPath, err)
	}
	return Tags(tags), nil
}

// Outcome tells how a metadata extraction ended.
type Outcome int

const (
	Decoded Outcome = iota
	DecodeFailed
	Unsupported
)

func (o Outcome) String() string {
	switch o {
	case Decoded:
		return "decoded"
	case DecodeFailed:
		return "decode failed"
	case Unsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Extraction is the result of running a Decoder over one file.
// Tags is set only for Decoded; Err only for the other outcomes.
type Extraction struct {
	Outcome Outcome
	Tags    Tags
	Err     error
}

// Extract classifies path and decodes it when the format is supported.
func Extract(dec Decoder, path string) Extraction {
	if !IsSupported(path) {
		return Extraction{
			Outcome: Unsupported,
			Err:     newError(KindUnsupported, "extract", path, fmt.Errorf("extension %q", extensionOf(path))),
		}
	}
	tags, err := dec.Decode(path)
	if err != nil {
		return Extraction{Outcome: DecodeFailed, Err: err}
	}
	return Extraction{Outcome: Decoded, Tags: tags}
}
