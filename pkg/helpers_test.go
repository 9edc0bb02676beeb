package pkg_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/djherbis/times"
	"github.com/stretchr/testify/require"

	"github.com/user/photo-sorter/pkg"
)

// writeFile creates path and any missing parents.
func writeFile(t *testing.T, path string, content []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// exifTIFF builds a minimal little-endian TIFF whose Exif IFD carries
// DateTimeOriginal set to date.
func exifTIFF(date string) []byte {
	return exifDateTag(2, uint32(len(date)+1), 44, append([]byte(date), 0)) // ASCII
}

// exifShortDate builds the same TIFF with DateTimeOriginal stored as a
// single SHORT, which no camera writes.
func exifShortDate(v uint16) []byte {
	return exifDateTag(3, 1, uint32(v), nil)
}

func exifDateTag(typ uint16, count, value uint32, data []byte) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	put := func(v any) { _ = binary.Write(&b, le, v) }

	b.WriteString("II")
	put(uint16(42))
	put(uint32(8)) // IFD0

	put(uint16(1))
	put(uint16(0x8769)) // ExifIFDPointer
	put(uint16(4))      // LONG
	put(uint32(1))
	put(uint32(26))
	put(uint32(0))

	put(uint16(1))
	put(uint16(0x9003)) // DateTimeOriginal
	put(typ)
	put(count)
	put(value)
	put(uint32(0))

	b.Write(data)
	return b.Bytes()
}

type fakeTimes struct {
	mod, birth time.Time
	hasBirth   bool
}

func (f fakeTimes) ModTime() time.Time    { return f.mod }
func (f fakeTimes) AccessTime() time.Time { return f.mod }
func (f fakeTimes) ChangeTime() time.Time { return f.mod }
func (f fakeTimes) BirthTime() time.Time  { return f.birth }
func (f fakeTimes) HasChangeTime() bool   { return false }
func (f fakeTimes) HasBirthTime() bool    { return f.hasBirth }

// statWith returns a Stat func that reports ts for every existing file.
func statWith(ts fakeTimes) func(string) (times.Timespec, error) {
	return func(path string) (times.Timespec, error) {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		return ts, nil
	}
}

var birth = time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC)

// testResolver resolves file dates to birth, in UTC.
func testResolver() *pkg.DateResolver {
	return &pkg.DateResolver{
		Location: time.UTC,
		Stat:     statWith(fakeTimes{birth: birth, hasBirth: true}),
	}
}

type recordingObserver struct {
	pkg.NopObserver

	mu      sync.Mutex
	skipped map[string]error
}

func (r *recordingObserver) OnSkipped(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.skipped == nil {
		r.skipped = make(map[string]error)
	}
	r.skipped[path] = err
}
