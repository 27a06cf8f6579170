package rangereq

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sir_venger/media_lite/internal/mediatype"
	"github.com/sir_venger/media_lite/internal/models"
)

// Kind различает полный ответ и ответ с одним диапазоном.
type Kind int

const (
	Full Kind = iota
	Partial
)

func (k Kind) String() string {
	if k == Partial {
		return "partial"
	}
	return "full"
}

// Plan описывает, какие байты и заголовки нужно отдать. Сам план ввода-вывода не делает.
type Plan struct {
	Kind        Kind
	Range       ByteRange
	Size        int64
	ContentType string
	FileName    string
	// Degraded выставляется, когда Range был, но не разобрался и мы отдаём файл целиком.
	Degraded bool
}

// NewPlan выбирает между Full и Partial.
//
// Пустой rangeHeader означает отсутствие заголовка. Диапазоны учитываются только для
// потокового аудио. Нечитаемый Range не является ошибкой: отдаём весь файл со статусом 200,
// а не частичный ответ с неверными границами. Ошибкой остаётся только диапазон за концом
// файла (models.ErrRangeUnsatisfiable), на который отвечают 416.
func NewPlan(rangeHeader string, size int64, fileName string) (Plan, error) {
	contentType, audio := mediatype.Classify(fileName)
	plan := Plan{
		Kind:        Full,
		Size:        size,
		ContentType: contentType,
		FileName:    fileName,
	}

	if strings.TrimSpace(rangeHeader) == "" || !audio {
		return plan, nil
	}

	br, err := ParseRange(rangeHeader, size)
	switch {
	case err == nil:
		plan.Kind = Partial
		plan.Range = br
		return plan, nil
	case errors.Is(err, models.ErrRangeParse):
		plan.Degraded = true
		return plan, nil
	default:
		return Plan{}, err
	}
}

// Status возвращает HTTP-статус ответа.
func (p Plan) Status() int {
	if p.Kind == Partial {
		return http.StatusPartialContent
	}
	return http.StatusOK
}

// Offset — смещение первого отдаваемого байта.
func (p Plan) Offset() int64 {
	if p.Kind == Partial {
		return p.Range.Start
	}
	return 0
}

// ContentLength — сколько байт уйдёт в теле.
func (p Plan) ContentLength() int64 {
	if p.Kind == Partial {
		return p.Range.Length()
	}
	return p.Size
}

// Header заполняет заголовки ответа.
func (p Plan) Header(h http.Header) {
	h.Set("Content-Type", p.ContentType)
	h.Set("Content-Length", strconv.FormatInt(p.ContentLength(), 10))
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Disposition", ContentDisposition(p.FileName))
	if p.Kind == Partial {
		h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", p.Range.Start, p.Range.End, p.Size))
	}
}

// UnsatisfiableHeader выставляет заголовки для ответа 416.
func UnsatisfiableHeader(h http.Header, size int64) {
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
}

var dispositionEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "")

// ContentDisposition возвращает `inline; filename="<name>"` с экранированием кавычек.
func ContentDisposition(name string) string {
	return `inline; filename="` + dispositionEscaper.Replace(name) + `"`
}
