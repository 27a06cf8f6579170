// Package logging задаёт минимальный интерфейс структурного логгера поверх slog.
package logging

import "context"

// Logger — логгер с контекстом; args трактуются как пары ключ–значение:
//
//	log.Info(ctx, "archive created", "path", rel, "entries", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With возвращает дочерний логгер с постоянными атрибутами.
	With(args ...any) Logger
}
