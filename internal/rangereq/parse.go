// Package rangereq реализует обработку HTTP Range (RFC 7233) для одиночного диапазона:
// разбор заголовка, выбор между 200 и 206 и копирование нужного окна байт.
//
// Учитывается только первый диапазон из списка, multipart/byteranges не поддерживается.
package rangereq

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sir_venger/media_lite/internal/models"
)

const unitPrefix = "bytes="

// ByteRange — включительный диапазон [Start, End] внутри файла.
type ByteRange struct {
	Start int64
	End   int64
}

// Length возвращает количество байт в диапазоне.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ParseRange разбирает значение заголовка Range для файла размера size.
// Синтаксические ошибки возвращаются как models.ErrRangeParse,
// диапазоны за концом файла как models.ErrRangeUnsatisfiable.
func ParseRange(header string, size int64) (ByteRange, error) {
	h := strings.TrimSpace(header)
	if len(h) < len(unitPrefix) || !strings.EqualFold(h[:len(unitPrefix)], unitPrefix) {
		return ByteRange{}, fmt.Errorf("%w: unsupported unit in %q", models.ErrRangeParse, header)
	}

	spec, ok := firstSpec(h[len(unitPrefix):])
	if !ok {
		return ByteRange{}, fmt.Errorf("%w: no ranges in %q", models.ErrRangeParse, header)
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return ByteRange{}, fmt.Errorf("%w: missing dash in %q", models.ErrRangeParse, spec)
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	// bytes=-N: последние N байт.
	if startStr == "" {
		n, err := parseOffset(endStr)
		if err != nil {
			return ByteRange{}, fmt.Errorf("%w: suffix %q", models.ErrRangeParse, endStr)
		}
		if n == 0 || size <= 0 {
			return ByteRange{}, fmt.Errorf("%w: suffix %d of %d bytes", models.ErrRangeUnsatisfiable, n, size)
		}
		if n > size {
			n = size
		}
		return ByteRange{Start: size - n, End: size - 1}, nil
	}

	start, err := parseOffset(startStr)
	if err != nil {
		return ByteRange{}, fmt.Errorf("%w: start %q", models.ErrRangeParse, startStr)
	}

	end := size - 1
	if endStr != "" {
		end, err = parseOffset(endStr)
		if err != nil {
			return ByteRange{}, fmt.Errorf("%w: end %q", models.ErrRangeParse, endStr)
		}
		if end < start {
			return ByteRange{}, fmt.Errorf("%w: end %d before start %d", models.ErrRangeParse, end, start)
		}
	}

	if start >= size {
		return ByteRange{}, fmt.Errorf("%w: start %d, size %d", models.ErrRangeUnsatisfiable, start, size)
	}
	if end > size-1 {
		end = size - 1
	}

	return ByteRange{Start: start, End: end}, nil
}

// firstSpec возвращает первый непустой элемент списка диапазонов.
func firstSpec(list string) (string, bool) {
	for _, part := range strings.Split(list, ",") {
		if p := strings.TrimSpace(part); p != "" {
			return p, true
		}
	}
	return "", false
}

// parseOffset принимает только десятичные цифры без знака.
func parseOffset(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty offset")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
