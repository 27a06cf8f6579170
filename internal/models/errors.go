package models

import "errors"

var (
	ErrNotFound           = errors.New("file not found")
	ErrTraversal          = errors.New("path escapes storage root")
	ErrRangeParse         = errors.New("malformed range header")
	ErrRangeUnsatisfiable = errors.New("range not satisfiable")
	ErrEmptyInput         = errors.New("no files to compress")
	ErrBadRequest         = errors.New("bad request")

	// ErrStreamAborted — тело ответа оборвалось после отправки заголовков, ошибку клиенту уже не отдать.
	ErrStreamAborted = errors.New("stream aborted")
)
