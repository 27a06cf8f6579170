// Package archivesvc собирает ZIP-архивы из файлов каталога загрузок.
//
// Каждый исходный файл копируется в свою запись архива через буфер фиксированного
// размера, поэтому большие аудиофайлы не читаются в память целиком.
package archivesvc

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/zeebo/blake3"

	"github.com/sir_venger/media_lite/internal/logging"
	"github.com/sir_venger/media_lite/internal/models"
	"github.com/sir_venger/media_lite/internal/pathguard"
)

const (
	DefaultArchiveDir = "compressed"
	archiveExt        = ".zip"
)

// NameGenerator выдаёт случайный токен для имени архива.
type NameGenerator func() string

// Entry — исходный файл и имя записи внутри ZIP.
type Entry struct {
	Source pathguard.ResolvedPath
	Name   string
}

// Job — упорядоченный список записей и путь будущего архива.
type Job struct {
	Entries []Entry
	Output  pathguard.ResolvedPath
}

type Deps struct {
	Resolver   *pathguard.Resolver
	ArchiveDir string
	// Level — уровень deflate 1..9 или flate.HuffmanOnly; 0 означает уровень по умолчанию.
	Level   int
	Logger  logging.Logger
	NewName NameGenerator
}

type Archiver struct {
	Deps
}

// New конструирует сборщик архивов, подставляя значения по умолчанию.
func New(deps Deps) *Archiver {
	if deps.ArchiveDir == "" {
		deps.ArchiveDir = DefaultArchiveDir
	}
	if deps.Level == 0 || deps.Level < flate.HuffmanOnly || deps.Level > flate.BestCompression {
		deps.Level = flate.DefaultCompression
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.NewName == nil {
		deps.NewName = uuid.NewString
	}
	return &Archiver{Deps: deps}
}

// CompressMany упаковывает файлы в один архив <uuid>.zip в порядке перечисления.
func (a *Archiver) CompressMany(ctx context.Context, sources []pathguard.ResolvedPath) (models.ArchiveResult, error) {
	if len(sources) == 0 {
		return models.ArchiveResult{}, models.ErrEmptyInput
	}

	// Проверяем наличие всех файлов заранее, чтобы не создавать заведомо битый архив.
	if _, err := a.TotalSize(ctx, sources); err != nil {
		return models.ArchiveResult{}, err
	}

	out, err := a.outputPath(a.NewName() + archiveExt)
	if err != nil {
		return models.ArchiveResult{}, err
	}

	names := newEntryNamer()
	job := Job{Output: out, Entries: make([]Entry, 0, len(sources))}
	for _, src := range sources {
		job.Entries = append(job.Entries, Entry{Source: src, Name: names.next(src.Base())})
	}

	return a.Build(ctx, job)
}

// CompressOne упаковывает один файл в <имя>_<токен>.zip.
func (a *Archiver) CompressOne(ctx context.Context, source pathguard.ResolvedPath) (models.ArchiveResult, error) {
	if _, err := a.SizeOf(source); err != nil {
		return models.ArchiveResult{}, err
	}

	base := source.Base()
	out, err := a.outputPath(stem(base) + "_" + a.NewName() + archiveExt)
	if err != nil {
		return models.ArchiveResult{}, err
	}

	return a.Build(ctx, Job{
		Entries: []Entry{{Source: source, Name: base}},
		Output:  out,
	})
}

// Build пишет архив по готовому заданию. При ошибке частично записанный файл удаляется.
func (a *Archiver) Build(ctx context.Context, job Job) (res models.ArchiveResult, err error) {
	if len(job.Entries) == 0 {
		return models.ArchiveResult{}, models.ErrEmptyInput
	}

	f, err := os.OpenFile(job.Output.String(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return models.ArchiveResult{}, fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		_ = f.Close()
		if rmErr := os.Remove(job.Output.String()); rmErr != nil && !os.IsNotExist(rmErr) {
			a.Logger.Warn(ctx, "partial archive left on disk", "path", a.Resolver.Rel(job.Output), "err", rmErr)
		}
	}()

	hasher := blake3.New()
	zw := zip.NewWriter(io.MultiWriter(f, hasher))
	level := a.Level
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	var original int64
	for _, e := range job.Entries {
		if err = ctx.Err(); err != nil {
			return models.ArchiveResult{}, err
		}

		var n int64
		if n, err = a.addEntry(ctx, zw, e); err != nil {
			return models.ArchiveResult{}, err
		}
		original += n
	}

	if err = zw.Close(); err != nil {
		return models.ArchiveResult{}, fmt.Errorf("finalize archive: %w", err)
	}
	if err = f.Close(); err != nil {
		return models.ArchiveResult{}, fmt.Errorf("close archive: %w", err)
	}

	compressed, err := a.SizeOf(job.Output)
	if err != nil {
		return models.ArchiveResult{}, err
	}

	res = models.ArchiveResult{
		RelPath:        a.Resolver.Rel(job.Output),
		Entries:        len(job.Entries),
		OriginalSize:   original,
		CompressedSize: compressed,
		Digest:         hex.EncodeToString(hasher.Sum(nil)),
	}
	a.Logger.Info(ctx, "archive created",
		"path", res.RelPath,
		"entries", res.Entries,
		"original", res.OriginalSize,
		"compressed", res.CompressedSize,
		"ratio", res.Stats().Ratio(),
	)

	return res, nil
}

// outputPath создаёт каталог архивов при необходимости и проверяет итоговый путь.
func (a *Archiver) outputPath(name string) (pathguard.ResolvedPath, error) {
	dir, err := a.Resolver.Join(a.ArchiveDir)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(dir.String(), 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", a.ArchiveDir, err)
	}

	return a.Resolver.Join(a.ArchiveDir, name)
}

// stem отбрасывает последнее расширение; для имён вида ".env" остаётся "file".
func stem(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "file"
	}
	return name
}
