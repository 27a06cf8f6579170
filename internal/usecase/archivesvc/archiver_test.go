package archivesvc

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	kzip "github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/sir_venger/media_lite/internal/models"
	"github.com/sir_venger/media_lite/internal/pathguard"
)

type fixture struct {
	root     string
	resolver *pathguard.Resolver
	archiver *Archiver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	res, err := pathguard.New(root)
	require.NoError(t, err)

	return &fixture{
		root:     root,
		resolver: res,
		archiver: New(Deps{Resolver: res}),
	}
}

func (f *fixture) write(t *testing.T, rel string, data []byte) pathguard.ResolvedPath {
	t.Helper()
	p, err := f.resolver.Resolve(rel)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(p.String()), 0o755))
	require.NoError(t, os.WriteFile(p.String(), data, 0o644))
	return p
}

func (f *fixture) resolve(t *testing.T, rel string) pathguard.ResolvedPath {
	t.Helper()
	p, err := f.resolver.Resolve(rel)
	require.NoError(t, err)
	return p
}

// readArchive распаковывает архив стандартным archive/zip.
func readArchive(t *testing.T, path string) ([]string, map[string][]byte) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	contents := map[string][]byte{}
	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		names = append(names, zf.Name)
		contents[zf.Name] = b
	}
	return names, contents
}

func TestCompressMany_RoundTrip(t *testing.T) {
	f := newFixture(t)

	wav := bytes.Repeat([]byte("RIFFdata"), 64*1024)
	mp3 := make([]byte, 100*1024+3)
	for i := range mp3 {
		mp3[i] = byte(i * 7)
	}
	empty := []byte{}

	sources := []pathguard.ResolvedPath{
		f.write(t, "audio-files/take.wav", wav),
		f.write(t, "audio-files/song.mp3", mp3),
		f.write(t, "images/empty.gif", empty),
	}

	res, err := f.archiver.CompressMany(context.Background(), sources)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.RelPath, DefaultArchiveDir+"/"))
	assert.True(t, strings.HasSuffix(res.RelPath, ".zip"))
	assert.Equal(t, 3, res.Entries)
	assert.Equal(t, int64(len(wav)+len(mp3)), res.OriginalSize)

	archivePath := filepath.Join(f.root, filepath.FromSlash(res.RelPath))
	fi, err := os.Stat(archivePath)
	require.NoError(t, err)
	assert.Equal(t, fi.Size(), res.CompressedSize)

	names, contents := readArchive(t, archivePath)
	assert.Equal(t, []string{"take.wav", "song.mp3", "empty.gif"}, names)
	assert.Equal(t, wav, contents["take.wav"])
	assert.Equal(t, mp3, contents["song.mp3"])
	assert.Empty(t, contents["empty.gif"])

	raw, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	sum := blake3.Sum256(raw)
	assert.Equal(t, hex.EncodeToString(sum[:]), res.Digest)

	// wav хорошо жмётся, итоговый процент положительный.
	assert.Greater(t, res.Stats().RatioPercent, 0.0)
}

func TestCompressMany_StoresPrecompressedMedia(t *testing.T) {
	f := newFixture(t)
	src := f.write(t, "audio-files/song.mp3", bytes.Repeat([]byte{1}, 4096))
	wav := f.write(t, "audio-files/take.wav", bytes.Repeat([]byte{1}, 4096))

	res, err := f.archiver.CompressMany(context.Background(), []pathguard.ResolvedPath{src, wav})
	require.NoError(t, err)

	zr, err := zip.OpenReader(filepath.Join(f.root, res.RelPath))
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 2)
	assert.Equal(t, zip.Store, zr.File[0].Method)
	assert.Equal(t, zip.Deflate, zr.File[1].Method)
}

func TestCompressMany_DuplicateBaseNames(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a/song.mp3", []byte("first"))
	b := f.write(t, "b/song.mp3", []byte("second"))
	c := f.write(t, "c/song.mp3", []byte("third"))

	res, err := f.archiver.CompressMany(context.Background(), []pathguard.ResolvedPath{a, b, c})
	require.NoError(t, err)

	names, contents := readArchive(t, filepath.Join(f.root, res.RelPath))
	assert.Equal(t, []string{"song.mp3", "song (1).mp3", "song (2).mp3"}, names)
	assert.Equal(t, "second", string(contents["song (1).mp3"]))
}

func TestCompressMany_MissingFileAborts(t *testing.T) {
	f := newFixture(t)
	ok := f.write(t, "audio-files/ok.mp3", []byte("data"))
	missing := f.resolve(t, "audio-files/missing.mp3")

	_, err := f.archiver.CompressMany(context.Background(), []pathguard.ResolvedPath{ok, missing})
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, err.Error(), "audio-files/missing.mp3")
}

func TestCompressMany_DirectoryIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.write(t, "audio-files/ok.mp3", []byte("data"))

	_, err := f.archiver.CompressMany(context.Background(), []pathguard.ResolvedPath{f.resolve(t, "audio-files")})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestCompressMany_Empty(t *testing.T) {
	f := newFixture(t)

	_, err := f.archiver.CompressMany(context.Background(), nil)
	require.ErrorIs(t, err, models.ErrEmptyInput)
}

func TestBuild_RemovesPartialArchive(t *testing.T) {
	f := newFixture(t)
	ok := f.write(t, "ok.wav", []byte("data"))

	out, err := f.archiver.outputPath("broken.zip")
	require.NoError(t, err)

	_, err = f.archiver.Build(context.Background(), Job{
		Output: out,
		Entries: []Entry{
			{Source: ok, Name: "ok.wav"},
			{Source: f.resolve(t, "gone.wav"), Name: "gone.wav"},
		},
	})
	require.ErrorIs(t, err, models.ErrNotFound)

	_, statErr := os.Stat(out.String())
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuild_CanceledContext(t *testing.T) {
	f := newFixture(t)
	src := f.write(t, "ok.wav", []byte("data"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.archiver.CompressOne(ctx, src)
	require.ErrorIs(t, err, context.Canceled)
}

// cancelingWriter отменяет контекст, как только через него прошло limit байт.
type cancelingWriter struct {
	written int64
	limit   int64
	cancel  context.CancelFunc
}

func (w *cancelingWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.written >= w.limit {
		w.cancel()
	}
	return len(p), nil
}

func TestAddEntry_StopsMidFileOnCancel(t *testing.T) {
	f := newFixture(t)
	size := int64(64 * copyBufferSize)
	// mp3 кладётся без сжатия, поэтому байты доходят до writer'а сразу.
	src := f.write(t, "audio-files/long.mp3", make([]byte, size))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zw := kzip.NewWriter(&cancelingWriter{limit: 2 * copyBufferSize, cancel: cancel})
	n, err := f.archiver.addEntry(ctx, zw, Entry{Source: src, Name: "long.mp3"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, n, size/2)
}

func TestBuild_RefusesToOverwrite(t *testing.T) {
	root := t.TempDir()
	res, err := pathguard.New(root)
	require.NoError(t, err)

	a := New(Deps{Resolver: res, NewName: func() string { return "fixed" }})
	src, err := res.Resolve("a.wav")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src.String(), []byte("x"), 0o644))

	_, err = a.CompressMany(context.Background(), []pathguard.ResolvedPath{src})
	require.NoError(t, err)

	_, err = a.CompressMany(context.Background(), []pathguard.ResolvedPath{src})
	require.ErrorIs(t, err, fs.ErrExist)
}

func TestCompressOne_Naming(t *testing.T) {
	f := newFixture(t)
	src := f.write(t, "audio-files/track.flac", bytes.Repeat([]byte("flac"), 1000))

	res, err := f.archiver.CompressOne(context.Background(), src)
	require.NoError(t, err)

	base := filepath.Base(res.RelPath)
	assert.True(t, strings.HasPrefix(base, "track_"), base)
	assert.True(t, strings.HasSuffix(base, ".zip"), base)
	assert.Equal(t, int64(4000), res.OriginalSize)

	names, contents := readArchive(t, filepath.Join(f.root, res.RelPath))
	assert.Equal(t, []string{"track.flac"}, names)
	assert.Len(t, contents["track.flac"], 4000)
}

func TestCompressOne_Missing(t *testing.T) {
	f := newFixture(t)

	_, err := f.archiver.CompressOne(context.Background(), f.resolve(t, "nope.mp3"))
	require.ErrorIs(t, err, models.ErrNotFound)

	// каталог архивов не создаётся, если исходника нет
	_, statErr := os.Stat(filepath.Join(f.root, DefaultArchiveDir))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCompressOne_ConcurrentSameSource(t *testing.T) {
	f := newFixture(t)
	src := f.write(t, "audio-files/song.wav", bytes.Repeat([]byte("pcm"), 10000))

	const n = 8
	results := make([]models.ArchiveResult, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.archiver.CompressOne(context.Background(), src)
		}(i)
	}
	wg.Wait()

	seen := map[string]struct{}{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		_, dup := seen[results[i].RelPath]
		require.False(t, dup, results[i].RelPath)
		seen[results[i].RelPath] = struct{}{}

		_, contents := readArchive(t, filepath.Join(f.root, results[i].RelPath))
		assert.Len(t, contents["song.wav"], 30000)
	}
}

func TestTotalSize(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.bin", make([]byte, 10))
	b := f.write(t, "b.bin", make([]byte, 32))

	total, err := f.archiver.TotalSize(context.Background(), []pathguard.ResolvedPath{a, b})
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)

	_, err = f.archiver.TotalSize(context.Background(), []pathguard.ResolvedPath{a, f.resolve(t, "c.bin")})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "song", stem("song.mp3"))
	assert.Equal(t, "a.b", stem("a.b.wav"))
	assert.Equal(t, "README", stem("README"))
	assert.Equal(t, "file", stem(".env"))
}

func TestNew_Defaults(t *testing.T) {
	res, err := pathguard.New(t.TempDir())
	require.NoError(t, err)

	a := New(Deps{Resolver: res, Level: 42})
	assert.Equal(t, DefaultArchiveDir, a.ArchiveDir)
	assert.Equal(t, -1, a.Level)
	assert.NotNil(t, a.Logger)
	assert.NotEqual(t, a.NewName(), a.NewName())
}
