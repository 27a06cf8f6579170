package rangereq

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/media_lite/internal/models"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		header string
		size   int64
		want   ByteRange
	}{
		{"bytes=0-0", 1, ByteRange{0, 0}},
		{"bytes=0-0", 1000, ByteRange{0, 0}},
		{"bytes=0-1023", 4096, ByteRange{0, 1023}},
		{"bytes=100-", 1000, ByteRange{100, 999}},
		{"bytes=-100", 1000, ByteRange{900, 999}},
		{"bytes=-5000", 1000, ByteRange{0, 999}},
		{"bytes=500-99999", 1000, ByteRange{500, 999}},
		{"bytes=999-999", 1000, ByteRange{999, 999}},
		{"BYTES= 10 - 20 ", 1000, ByteRange{10, 20}},
		{"bytes=10-20, 30-40", 1000, ByteRange{10, 20}},
		{"bytes=, 30-40", 1000, ByteRange{30, 40}},
	}

	for _, tc := range tests {
		t.Run(tc.header, func(t *testing.T) {
			got, err := ParseRange(tc.header, tc.size)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.End-tc.want.Start+1, got.Length())
		})
	}
}

func TestParseRange_Malformed(t *testing.T) {
	headers := []string{
		"bytes=abc",
		"bytes=",
		"bytes=-",
		"bytes=5",
		"bytes=10-5",
		"bytes=+1-2",
		"bytes=1-x",
		"items=0-10",
		"0-10",
		"",
	}

	for _, h := range headers {
		_, err := ParseRange(h, 1000)
		require.ErrorIs(t, err, models.ErrRangeParse, h)
	}
}

func TestParseRange_Unsatisfiable(t *testing.T) {
	tests := []struct {
		header string
		size   int64
	}{
		{"bytes=1000-1000", 1000},
		{"bytes=2000-", 1000},
		{"bytes=-0", 1000},
		{"bytes=0-0", 0},
		{"bytes=-10", 0},
	}

	for _, tc := range tests {
		_, err := ParseRange(tc.header, tc.size)
		require.ErrorIs(t, err, models.ErrRangeUnsatisfiable, tc.header)
	}
}

func TestNewPlan_NoHeaderIsFull(t *testing.T) {
	for _, size := range []int64{0, 1, 4096} {
		plan, err := NewPlan("", size, "song.mp3")
		require.NoError(t, err)
		assert.Equal(t, Full, plan.Kind)
		assert.Equal(t, http.StatusOK, plan.Status())
		assert.Equal(t, size, plan.ContentLength())
	}
}

func TestNewPlan_NonAudioIgnoresRange(t *testing.T) {
	plan, err := NewPlan("bytes=0-0", 4096, "cover.png")
	require.NoError(t, err)
	assert.Equal(t, Full, plan.Kind)
	assert.Equal(t, "image/png", plan.ContentType)
	assert.Equal(t, int64(4096), plan.ContentLength())
}

func TestNewPlan_FirstByte(t *testing.T) {
	for _, size := range []int64{1, 2, 1 << 20} {
		plan, err := NewPlan("bytes=0-0", size, "song.mp3")
		require.NoError(t, err)
		require.Equal(t, Partial, plan.Kind)
		assert.Equal(t, int64(1), plan.ContentLength())

		h := http.Header{}
		plan.Header(h)
		assert.Equal(t, "bytes 0-0/"+strconv.FormatInt(size, 10), h.Get("Content-Range"))
		assert.Equal(t, "1", h.Get("Content-Length"))
		assert.Equal(t, "bytes", h.Get("Accept-Ranges"))
		assert.Equal(t, "audio/mpeg", h.Get("Content-Type"))
		assert.Equal(t, `inline; filename="song.mp3"`, h.Get("Content-Disposition"))
		assert.Equal(t, http.StatusPartialContent, plan.Status())
	}
}

func TestNewPlan_AtEOFIsUnsatisfiable(t *testing.T) {
	_, err := NewPlan("bytes=4096-4096", 4096, "song.flac")
	require.ErrorIs(t, err, models.ErrRangeUnsatisfiable)

	h := http.Header{}
	UnsatisfiableHeader(h, 4096)
	assert.Equal(t, "bytes */4096", h.Get("Content-Range"))
}

// Нечитаемый Range деградирует до полного ответа 200, а не 206 с неверными границами.
func TestNewPlan_MalformedDegradesToFull(t *testing.T) {
	plan, err := NewPlan("bytes=abc", 4096, "song.wav")
	require.NoError(t, err)
	assert.Equal(t, Full, plan.Kind)
	assert.True(t, plan.Degraded)
	assert.Equal(t, http.StatusOK, plan.Status())

	h := http.Header{}
	plan.Header(h)
	assert.Empty(t, h.Get("Content-Range"))
	assert.Equal(t, "4096", h.Get("Content-Length"))
}

func TestFullPlanHeaders(t *testing.T) {
	plan, err := NewPlan("", 10, "a.bin")
	require.NoError(t, err)

	h := http.Header{}
	plan.Header(h)
	assert.Equal(t, "application/octet-stream", h.Get("Content-Type"))
	assert.Equal(t, "10", h.Get("Content-Length"))
	assert.Equal(t, "bytes", h.Get("Accept-Ranges"))
	assert.Equal(t, `inline; filename="a.bin"`, h.Get("Content-Disposition"))
	assert.Empty(t, h.Get("Content-Range"))
}

func TestContentDisposition_Escapes(t *testing.T) {
	assert.Equal(t, `inline; filename="a\"b.mp3"`, ContentDisposition(`a"b.mp3`))
	assert.Equal(t, `inline; filename="ab.mp3"`, ContentDisposition("a\r\nb.mp3"))
}

func TestCopy_Window(t *testing.T) {
	data := make([]byte, 3*BufferSize+17)
	for i := range data {
		data[i] = byte(i % 251)
	}
	size := int64(len(data))

	plan, err := NewPlan("bytes=100-70000", size, "song.mp3")
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := Copy(context.Background(), &out, bytes.NewReader(data), plan)
	require.NoError(t, err)
	assert.Equal(t, int64(69901), n)
	assert.Equal(t, data[100:70001], out.Bytes())

	full, err := NewPlan("", size, "song.mp3")
	require.NoError(t, err)
	out.Reset()
	_, err = Copy(context.Background(), &out, bytes.NewReader(data), full)
	require.NoError(t, err)
	assert.Equal(t, data, out.Bytes())
}

func TestCopy_ZeroLength(t *testing.T) {
	plan, err := NewPlan("", 0, "empty.mp3")
	require.NoError(t, err)

	n, err := Copy(context.Background(), io.Discard, bytes.NewReader(nil), plan)
	require.NoError(t, err)
	assert.Zero(t, n)
}

var errGone = errors.New("client gone")

type failingWriter struct {
	left int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.left <= 0 {
		return 0, errGone
	}
	f.left--
	return len(p), nil
}

func TestCopy_WriterFailureAborts(t *testing.T) {
	data := make([]byte, 10*BufferSize)
	plan, err := NewPlan("", int64(len(data)), "song.mp3")
	require.NoError(t, err)

	n, err := Copy(context.Background(), &failingWriter{left: 2}, bytes.NewReader(data), plan)
	require.ErrorIs(t, err, errGone)
	assert.Equal(t, int64(2*BufferSize), n)
}

func TestCopy_CanceledContext(t *testing.T) {
	data := make([]byte, BufferSize)
	plan, err := NewPlan("", int64(len(data)), "song.mp3")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Copy(ctx, io.Discard, bytes.NewReader(data), plan)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCopy_ShortSource(t *testing.T) {
	plan := Plan{Kind: Full, Size: 100}

	_, err := Copy(context.Background(), io.Discard, bytes.NewReader(make([]byte, 40)), plan)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
