package pkg_test

import (
	"path/filepath"
	"testing"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/photo-sorter/pkg"
)

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	tiffPath := writeFile(t, filepath.Join(dir, "frame.tiff"), exifTIFF("2023:05:01 10:20:30"))
	brokenPath := writeFile(t, filepath.Join(dir, "broken.jpg"), []byte("definitely not a jpeg"))
	textPath := writeFile(t, filepath.Join(dir, "notes.txt"), []byte("hello"))

	tests := []struct {
		name     string
		path     string
		want     pkg.Outcome
		wantKind pkg.ErrorKind
	}{
		{name: "tiff with exif", path: tiffPath, want: pkg.Decoded},
		{name: "corrupt jpeg", path: brokenPath, want: pkg.DecodeFailed, wantKind: pkg.KindDecode},
		{name: "missing file", path: filepath.Join(dir, "missing.jpg"), want: pkg.DecodeFailed, wantKind: pkg.KindIO},
		{name: "unsupported extension", path: textPath, want: pkg.Unsupported, wantKind: pkg.KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pkg.Extract(pkg.ExifDecoder{}, tt.path)
			assert.Equal(t, tt.want, got.Outcome)
			if tt.want == pkg.Decoded {
				require.NoError(t, got.Err)
				tag, ok := got.Tags[exif.DateTimeOriginal]
				require.True(t, ok)
				s, err := tag.StringVal()
				require.NoError(t, err)
				assert.Equal(t, "2023:05:01 10:20:30", s)
				return
			}
			require.Error(t, got.Err)
			assert.Nil(t, got.Tags)
			assert.True(t, pkg.IsKind(got.Err, tt.wantKind), "got %v", got.Err)
		})
	}
}

type countingDecoder struct{ calls int }

func (d *countingDecoder) Decode(string) (pkg.Tags, error) {
	d.calls++
	return pkg.Tags{}, nil
}

func TestExtractSkipsDecoderForUnsupported(t *testing.T) {
	dec := &countingDecoder{}
	got := pkg.Extract(dec, "/nowhere/clip.mov")
	assert.Equal(t, pkg.Unsupported, got.Outcome)
	assert.Zero(t, dec.calls)

	got = pkg.Extract(dec, "/nowhere/shot.CR3")
	assert.Equal(t, pkg.Decoded, got.Outcome)
	assert.Equal(t, 1, dec.calls)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "decoded", pkg.Decoded.String())
	assert.Equal(t, "decode failed", pkg.DecodeFailed.String())
	assert.Equal(t, "unsupported", pkg.Unsupported.String())
}
