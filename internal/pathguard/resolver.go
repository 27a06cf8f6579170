// Package pathguard переводит пользовательские относительные пути в абсолютные
// пути внутри каталога загрузок и отвергает всё, что выходит за его пределы.
package pathguard

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sir_venger/media_lite/internal/models"
)

// ResolvedPath — абсолютный путь, гарантированно лежащий внутри корня.
// Получить его можно только через Resolver.
type ResolvedPath string

// String возвращает путь для передачи в os.* функции.
func (p ResolvedPath) String() string {
	return string(p)
}

// Base возвращает последний сегмент пути.
func (p ResolvedPath) Base() string {
	return filepath.Base(string(p))
}

// Resolver привязан к корню хранилища, который не меняется после старта.
type Resolver struct {
	root string
}

// New создаёт резолвер; корень приводится к абсолютному нормализованному виду.
func New(root string) (*Resolver, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root is empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs %s: %w", root, err)
	}

	return &Resolver{root: filepath.Clean(abs)}, nil
}

// Root возвращает корень хранилища.
func (r *Resolver) Root() ResolvedPath {
	return ResolvedPath(r.root)
}

// Resolve проверяет один пользовательский путь относительно корня.
func (r *Resolver) Resolve(userInput string) (ResolvedPath, error) {
	return r.Join(userInput)
}

// Join объединяет корень и сегменты и убеждается, что результат остаётся внутри корня.
// Абсолютные сегменты трактуются как относительные к корню.
func (r *Resolver) Join(parts ...string) (ResolvedPath, error) {
	elems := make([]string, 0, len(parts)+1)
	elems = append(elems, r.root)
	for _, part := range parts {
		clean, err := checkSegment(part)
		if err != nil {
			return "", err
		}
		elems = append(elems, clean)
	}

	// filepath.Join вызывает Clean, поэтому ".." схлопываются до сравнения.
	p := filepath.Join(elems...)

	rel, err := filepath.Rel(r.root, p)
	if err != nil {
		return "", fmt.Errorf("%w: %q", models.ErrTraversal, strings.Join(parts, "/"))
	}
	relSl := filepath.ToSlash(rel)
	if relSl == ".." || strings.HasPrefix(relSl, "../") {
		return "", fmt.Errorf("%w: %q", models.ErrTraversal, strings.Join(parts, "/"))
	}

	return ResolvedPath(p), nil
}

// Rel возвращает путь относительно корня в виде со слешами, как он фигурирует в URL.
func (r *Resolver) Rel(p ResolvedPath) string {
	rel, err := filepath.Rel(r.root, string(p))
	if err != nil {
		return ""
	}
	if rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// checkSegment отвергает NUL и переводит "/" в разделитель ОС. Сегмент уже раскодирован
// вызывающим кодом, поэтому "%" и обратный слеш остаются частью имени.
func checkSegment(s string) (string, error) {
	if strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("%w: NUL byte in path", models.ErrTraversal)
	}
	return filepath.FromSlash(s), nil
}
