package mediaclient

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	meterWidth  = 24
	meterPeriod = 150 * time.Millisecond
)

// window — часть файла, которую сервер отдал в ответе 206.
type window struct {
	start, end int64
	// size равен -1, если сервер прислал "*".
	size int64
}

// parseContentRange разбирает "bytes 10-19/1000" и "bytes 10-19/*".
func parseContentRange(v string) (window, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(v), "bytes ")
	if !ok {
		return window{}, false
	}
	span, total, ok := strings.Cut(rest, "/")
	if !ok {
		return window{}, false
	}
	first, last, ok := strings.Cut(span, "-")
	if !ok {
		return window{}, false
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 {
		return window{}, false
	}
	end, err := strconv.ParseInt(last, 10, 64)
	if err != nil || end < start {
		return window{}, false
	}

	w := window{start: start, end: end, size: -1}
	if total != "*" {
		size, err := strconv.ParseInt(total, 10, 64)
		if err != nil || size <= end {
			return window{}, false
		}
		w.size = size
	}
	return w, true
}

func (w window) String() string {
	size := "*"
	if w.size >= 0 {
		size = humanBytes(w.size)
	}
	return fmt.Sprintf("bytes %d-%d of %s", w.start, w.end, size)
}

// meter считает байты тела ответа и перерисовывает одну строку в out.
// Тело читает одна горутина, поэтому состояние без блокировок.
type meter struct {
	body   io.ReadCloser
	out    io.Writer
	name   string
	total  int64
	win    window
	ranged bool

	read  int64
	drawn time.Time
	width int
	done  bool
}

// newMeter оборачивает тело ответа. Для 206 объём берётся из окна Content-Range.
func newMeter(body io.ReadCloser, out io.Writer, name string, contentLength int64, contentRange string) *meter {
	m := &meter{body: body, out: out, name: name, total: contentLength}
	if w, ok := parseContentRange(contentRange); ok {
		m.win, m.ranged = w, true
		m.total = w.end - w.start + 1
	}
	return m
}

func (m *meter) Read(p []byte) (int, error) {
	n, err := m.body.Read(p)
	m.read += int64(n)
	switch {
	case err != nil:
		m.finish(err)
	case time.Since(m.drawn) >= meterPeriod:
		m.draw("")
	}
	return n, err
}

// Close завершает строку; тело, закрытое до конца, отмечается как неполное.
func (m *meter) Close() error {
	err := m.body.Close()
	if err == nil && m.total > 0 && m.read < m.total {
		err = io.ErrUnexpectedEOF
	}
	m.finish(err)
	return err
}

func (m *meter) finish(err error) {
	if m.done {
		return
	}
	m.done = true

	if err == nil || errors.Is(err, io.EOF) {
		m.draw(" ok")
	} else {
		m.draw(" failed: " + err.Error())
	}
	fmt.Fprintln(m.out)
}

func (m *meter) draw(suffix string) {
	line := m.line() + suffix
	pad := ""
	if m.width > len(line) {
		pad = strings.Repeat(" ", m.width-len(line))
	}
	m.width = len(line)
	m.drawn = time.Now()
	fmt.Fprintf(m.out, "\r%s%s", line, pad)
}

func (m *meter) line() string {
	var b strings.Builder
	b.WriteString(m.name)
	if m.ranged {
		b.WriteString(" [")
		b.WriteString(m.win.String())
		b.WriteByte(']')
	}

	if m.total <= 0 {
		fmt.Fprintf(&b, " %s", humanBytes(m.read))
		return b.String()
	}

	ratio := min(float64(m.read)/float64(m.total), 1)
	filled := int(ratio * meterWidth)
	fmt.Fprintf(&b, " |%s%s| %3d%% %s/%s",
		strings.Repeat("#", filled), strings.Repeat(".", meterWidth-filled),
		int(ratio*100), humanBytes(m.read), humanBytes(m.total))
	return b.String()
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div, exp := int64(unit), 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(v)/float64(div), "KMGTPE"[exp])
}
