package rangereq

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// BufferSize задаёт размер буфера передачи, файл целиком в память не читается.
const BufferSize = 32 * 1024

var bufPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, BufferSize)
		return &b
	},
}

// Copy пишет в w ровно plan.ContentLength() байт из src, начиная с plan.Offset().
// Ошибка записи (клиент отключился) или отмена ctx прерывают копирование.
func Copy(ctx context.Context, w io.Writer, src io.ReaderAt, plan Plan) (int64, error) {
	want := plan.ContentLength()
	if want <= 0 {
		return 0, nil
	}

	section := io.NewSectionReader(src, plan.Offset(), want)

	b := bufPool.Get().(*[]byte)
	defer bufPool.Put(b)

	// writerOnly прячет ReadFrom, чтобы копирование шло через наш буфер.
	n, err := io.CopyBuffer(writerOnly{w}, ctxReader{ctx: ctx, r: section}, *b)
	if err != nil {
		return n, err
	}
	if n != want {
		return n, fmt.Errorf("short read at offset %d: %w", plan.Offset()+n, io.ErrUnexpectedEOF)
	}

	return n, nil
}

type writerOnly struct {
	io.Writer
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
