package archivesvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"

	"github.com/sir_venger/media_lite/internal/mediatype"
	"github.com/sir_venger/media_lite/internal/models"
	"github.com/sir_venger/media_lite/internal/pathguard"
)

const (
	copyBufferSize = 32 * 1024
	statWorkers    = 8
)

var bufPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, copyBufferSize)
		return &b
	},
}

// SizeOf возвращает размер обычного файла; для отсутствующего файла и каталога возвращает models.ErrNotFound.
func (a *Archiver) SizeOf(p pathguard.ResolvedPath) (int64, error) {
	fi, err := os.Stat(p.String())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", models.ErrNotFound, a.Resolver.Rel(p))
		}
		return 0, fmt.Errorf("stat %s: %w", a.Resolver.Rel(p), err)
	}
	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s is not a regular file", models.ErrNotFound, a.Resolver.Rel(p))
	}

	return fi.Size(), nil
}

// TotalSize параллельно опрашивает размеры файлов и возвращает сумму.
// Первая же ошибка (например, отсутствующий файл) отменяет остальные проверки.
func (a *Archiver) TotalSize(ctx context.Context, paths []pathguard.ResolvedPath) (int64, error) {
	sizes := make([]int64, len(paths))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(statWorkers)
	for i, p := range paths {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			n, err := a.SizeOf(p)
			if err != nil {
				return err
			}
			sizes[i] = n
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, n := range sizes {
		total += n
	}
	return total, nil
}

// addEntry копирует один файл в новую запись архива и возвращает число исходных байт.
// Отмена ctx прерывает копирование на следующем буфере, а не после всего файла.
func (a *Archiver) addEntry(ctx context.Context, zw *zip.Writer, e Entry) (int64, error) {
	src, err := os.Open(e.Source.String())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", models.ErrNotFound, a.Resolver.Rel(e.Source))
		}
		return 0, fmt.Errorf("open %s: %w", a.Resolver.Rel(e.Source), err)
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", a.Resolver.Rel(e.Source), err)
	}
	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s is not a regular file", models.ErrNotFound, a.Resolver.Rel(e.Source))
	}

	hdr, err := zip.FileInfoHeader(fi)
	if err != nil {
		return 0, err
	}
	hdr.Name = e.Name
	hdr.Method = zip.Deflate
	if mediatype.IsPrecompressed(e.Name) {
		hdr.Method = zip.Store
	}

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return 0, fmt.Errorf("create entry %s: %w", e.Name, err)
	}

	b := bufPool.Get().(*[]byte)
	defer bufPool.Put(b)

	// ctxReader прячет WriteTo у *os.File, копирование идёт через буфер.
	n, err := io.CopyBuffer(w, ctxReader{ctx: ctx, r: src}, *b)
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", e.Name, err)
	}

	return n, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// entryNamer раздаёт уникальные имена записей: повтор "a.mp3" становится "a (1).mp3".
type entryNamer struct {
	taken map[string]struct{}
	seq   map[string]int
}

func newEntryNamer() *entryNamer {
	return &entryNamer{taken: map[string]struct{}{}, seq: map[string]int{}}
}

func (n *entryNamer) next(base string) string {
	ext := filepath.Ext(base)
	trunk := strings.TrimSuffix(base, ext)

	name := base
	for {
		if _, ok := n.taken[name]; !ok {
			n.taken[name] = struct{}{}
			return name
		}
		n.seq[base]++
		name = fmt.Sprintf("%s (%d)%s", trunk, n.seq[base], ext)
	}
}
