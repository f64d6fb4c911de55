package extract_test

import (
	"encoding/binary"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/dcontiveros/sc2kne-patcher/internal/extract"
	"github.com/dcontiveros/sc2kne-patcher/internal/is3"
)

// precomputed implode streams, small enough to embed
var (
	streamABC = []byte{0x00, 0x04, 0x82, 0x08, 0x19, 0x0A, 0xF8, 0x07} // "ABC"
	streamAI  = []byte{0x00, 0x04, 0x82, 0x24, 0x25, 0x8F, 0x80, 0x7F} // "AIAIAIAIAIAIA"
)

type testDir struct {
	name  string
	count uint16
}

type testFile struct {
	name         string
	payload      []byte
	date, ftime  uint16
	sizeOverride uint32 // declared instead of len(payload) when non-zero
}

// buildArchive assembles one complete installer image: prefix bytes of
// junk, the archive header, the payload area, then the file table.
func buildArchive(prefix int, dirs []testDir, files []testFile) []byte {
	var payload []byte
	for _, f := range files {
		payload = append(payload, f.payload...)
	}
	nameOffset := is3.TableHeaderSize + len(payload)

	var table []byte
	for _, d := range dirs {
		rec := make([]byte, 6+len(d.name))
		binary.LittleEndian.PutUint16(rec[0:], d.count)
		binary.LittleEndian.PutUint16(rec[2:], uint16(len(rec)))
		binary.LittleEndian.PutUint16(rec[4:], uint16(len(d.name)))
		copy(rec[6:], d.name)
		table = append(table, rec...)
	}
	for _, f := range files {
		size := uint32(len(f.payload))
		if f.sizeOverride != 0 {
			size = f.sizeOverride
		}
		rec := make([]byte, 0x1E+len(f.name))
		binary.LittleEndian.PutUint32(rec[0x07:], size)
		binary.LittleEndian.PutUint16(rec[0x0F:], f.date)
		binary.LittleEndian.PutUint16(rec[0x11:], f.ftime)
		binary.LittleEndian.PutUint16(rec[0x17:], uint16(len(rec)))
		rec[0x1D] = byte(len(f.name))
		copy(rec[0x1E:], f.name)
		table = append(table, rec...)
	}

	buf := make([]byte, prefix+nameOffset+len(table))
	hdr := buf[prefix:]
	copy(hdr, is3.Signature)
	binary.LittleEndian.PutUint16(hdr[0x0C:], uint16(len(files)))
	binary.LittleEndian.PutUint32(hdr[0x12:], uint32(nameOffset+len(table)))
	binary.LittleEndian.PutUint32(hdr[0x29:], uint32(nameOffset))
	binary.LittleEndian.PutUint16(hdr[0x31:], uint16(len(dirs)))
	copy(hdr[is3.TableHeaderSize:], payload)
	copy(hdr[nameOffset:], table)
	return buf
}

func scanOne(t *testing.T, buf []byte) is3.Header {
	t.Helper()
	headers := slices.Collect(is3.Scan(buf))
	if len(headers) != 1 {
		t.Fatalf("Scan() found %d archives, want 1", len(headers))
	}
	return headers[0]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtract(t *testing.T) {
	buf := buildArchive(0x10,
		[]testDir{{name: "SUBDIR", count: 2}},
		[]testFile{
			{name: "HELLO.TXT", payload: streamABC, date: 0x1E71, ftime: 25541},
			{name: "DATA.BIN", payload: streamAI},
		},
	)

	fs := afero.NewMemMapFs()
	ex := &extract.Extractor{FS: fs, Logger: testLogger()}
	extracted, failed, err := ex.Extract(buf, scanOne(t, buf), "out")
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if extracted != 2 || failed != 0 {
		t.Errorf("Extract() = (%d, %d), want (2, 0)", extracted, failed)
	}

	got, err := afero.ReadFile(fs, "out/SUBDIR/HELLO.TXT")
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(got) != "ABC" {
		t.Errorf("HELLO.TXT = %q, want %q", got, "ABC")
	}

	got, err = afero.ReadFile(fs, "out/SUBDIR/DATA.BIN")
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(got) != "AIAIAIAIAIAIA" {
		t.Errorf("DATA.BIN = %q, want %q", got, "AIAIAIAIAIAIA")
	}

	// the record's MS-DOS timestamp lands on the written file
	info, err := fs.Stat("out/SUBDIR/HELLO.TXT")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	want := time.Date(1995, time.March, 17, 12, 30, 10, 0, time.UTC)
	if !info.ModTime().Equal(want) {
		t.Errorf("mod time = %v, want %v", info.ModTime(), want)
	}
}

func TestExtractEmptyArchive(t *testing.T) {
	buf := buildArchive(0, nil, nil)

	fs := afero.NewMemMapFs()
	ex := &extract.Extractor{FS: fs, Logger: testLogger()}
	extracted, failed, err := ex.Extract(buf, scanOne(t, buf), "out")
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if extracted != 0 || failed != 0 {
		t.Errorf("Extract() = (%d, %d), want (0, 0)", extracted, failed)
	}

	ok, err := afero.DirExists(fs, "out")
	if err != nil || !ok {
		t.Errorf("output directory missing (ok=%v, err=%v)", ok, err)
	}
}

func TestExtractToleratesDamage(t *testing.T) {
	t.Run("corrupt stream", func(t *testing.T) {
		buf := buildArchive(0, nil, []testFile{
			{name: "GOOD.TXT", payload: streamABC},
			{name: "BAD.BIN", payload: []byte{0x05, 0x04, 0xFF}},
		})

		fs := afero.NewMemMapFs()
		ex := &extract.Extractor{FS: fs, Logger: testLogger(), Workers: 1}
		extracted, failed, err := ex.Extract(buf, scanOne(t, buf), "out")
		if err != nil {
			t.Fatalf("Extract() failed: %v", err)
		}
		if extracted != 1 || failed != 1 {
			t.Errorf("Extract() = (%d, %d), want (1, 1)", extracted, failed)
		}

		got, err := afero.ReadFile(fs, "out/GOOD.TXT")
		if err != nil || string(got) != "ABC" {
			t.Errorf("GOOD.TXT = %q, %v; the intact file must still extract", got, err)
		}

		// nothing half-written for the damaged entry
		if ok, _ := afero.Exists(fs, "out/BAD.BIN"); ok {
			t.Error("BAD.BIN was written despite the corrupt stream")
		}
	})

	t.Run("payload outside the buffer", func(t *testing.T) {
		buf := buildArchive(0, nil, []testFile{
			{name: "TRUNC.BIN", payload: streamABC, sizeOverride: 0x4000},
		})

		fs := afero.NewMemMapFs()
		ex := &extract.Extractor{FS: fs, Logger: testLogger()}
		extracted, failed, err := ex.Extract(buf, scanOne(t, buf), "out")
		if err != nil {
			t.Fatalf("Extract() failed: %v", err)
		}
		if extracted != 0 || failed != 1 {
			t.Errorf("Extract() = (%d, %d), want (0, 1)", extracted, failed)
		}
	})

	t.Run("path escaping the output root", func(t *testing.T) {
		buf := buildArchive(0, nil, []testFile{
			{name: "../EVIL.TXT", payload: streamABC},
		})

		fs := afero.NewMemMapFs()
		ex := &extract.Extractor{FS: fs, Logger: testLogger()}
		extracted, failed, err := ex.Extract(buf, scanOne(t, buf), "out")
		if err != nil {
			t.Fatalf("Extract() failed: %v", err)
		}
		if extracted != 0 || failed != 1 {
			t.Errorf("Extract() = (%d, %d), want (0, 1)", extracted, failed)
		}
		for _, path := range []string{"EVIL.TXT", "out/EVIL.TXT"} {
			if ok, _ := afero.Exists(fs, path); ok {
				t.Errorf("%s exists; extraction escaped the output root", path)
			}
		}
	})

	t.Run("absolute path in the record", func(t *testing.T) {
		buf := buildArchive(0, nil, []testFile{
			{name: "/ABS.TXT", payload: streamABC},
		})

		fs := afero.NewMemMapFs()
		ex := &extract.Extractor{FS: fs, Logger: testLogger()}
		extracted, failed, err := ex.Extract(buf, scanOne(t, buf), "out")
		if err != nil {
			t.Fatalf("Extract() failed: %v", err)
		}
		if extracted != 0 || failed != 1 {
			t.Errorf("Extract() = (%d, %d), want (0, 1)", extracted, failed)
		}
		for _, path := range []string{"/ABS.TXT", "out/ABS.TXT"} {
			if ok, _ := afero.Exists(fs, path); ok {
				t.Errorf("%s exists; an absolute record name must be refused", path)
			}
		}
	})
}

func TestExtractIdempotent(t *testing.T) {
	// the same buffer extracted twice yields identical path sets and
	// byte-identical contents
	buf := buildArchive(0,
		[]testDir{{name: "SUBDIR", count: 1}},
		[]testFile{
			{name: "HELLO.TXT", payload: streamABC},
			{name: "DATA.BIN", payload: streamAI},
		},
	)
	hdr := scanOne(t, buf)

	fs := afero.NewMemMapFs()
	ex := &extract.Extractor{FS: fs, Logger: testLogger()}
	for _, root := range []string{"first", "second"} {
		extracted, failed, err := ex.Extract(buf, hdr, root)
		if err != nil || extracted != 2 || failed != 0 {
			t.Fatalf("Extract() to %s = (%d, %d, %v), want (2, 0, nil)", root, extracted, failed, err)
		}
	}

	for _, path := range []string{"SUBDIR/HELLO.TXT", "DATA.BIN"} {
		a, err := afero.ReadFile(fs, "first/"+path)
		if err != nil {
			t.Fatalf("reading first/%s: %v", path, err)
		}
		b, err := afero.ReadFile(fs, "second/"+path)
		if err != nil {
			t.Fatalf("reading second/%s: %v", path, err)
		}
		if string(a) != string(b) {
			t.Errorf("%s differs between runs: %q vs %q", path, a, b)
		}
	}
}

func TestExtractMatchPattern(t *testing.T) {
	buf := buildArchive(0,
		[]testDir{{name: "DISK1", count: 2}},
		[]testFile{
			{name: "README.TXT", payload: streamABC},
			{name: "SETUP.INS", payload: streamAI},
		},
	)

	fs := afero.NewMemMapFs()
	ex := &extract.Extractor{FS: fs, Logger: testLogger(), Match: "**/*.TXT"}
	extracted, failed, err := ex.Extract(buf, scanOne(t, buf), "out")
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if extracted != 1 || failed != 0 {
		t.Errorf("Extract() = (%d, %d), want (1, 0)", extracted, failed)
	}

	if ok, _ := afero.Exists(fs, "out/DISK1/README.TXT"); !ok {
		t.Error("README.TXT missing; it matches the pattern")
	}
	if ok, _ := afero.Exists(fs, "out/DISK1/SETUP.INS"); ok {
		t.Error("SETUP.INS extracted despite the pattern")
	}
}

func TestMatchFilter(t *testing.T) {
	files := []is3.FileRecord{
		{Path: "DISK1/SETUP.EXE"},
		{Path: "DISK1/DATA/GAME.DAT"},
		{Path: "README.TXT"},
	}

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{
			name:    "empty pattern keeps everything",
			pattern: "",
			want:    []string{"DISK1/SETUP.EXE", "DISK1/DATA/GAME.DAT", "README.TXT"},
		},
		{
			name:    "extension anywhere",
			pattern: "**/*.EXE",
			want:    []string{"DISK1/SETUP.EXE"},
		},
		{
			name:    "directory subtree",
			pattern: "DISK1/**",
			want:    []string{"DISK1/SETUP.EXE", "DISK1/DATA/GAME.DAT"},
		},
		{
			name:    "top level only",
			pattern: "*.TXT",
			want:    []string{"README.TXT"},
		},
		{
			name:    "no survivors",
			pattern: "*.DLL",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, f := range extract.MatchFilter(files, tt.pattern) {
				got = append(got, f.Path)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("MatchFilter(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}
