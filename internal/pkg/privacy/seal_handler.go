package privacy

import (
	"context"
	"log/slog"
)

// contactAttrKeys — ключи атрибутов, значения которых считаются именами
// контактов и подлежат сокрытию.
var contactAttrKeys = map[string]bool{
	"sender":    true,
	"contact":   true,
	"main_user": true,
}

// SealHandler - обертка для slog.Handler, которая скрывает имена контактов в логах
type SealHandler struct {
	handler slog.Handler
}

// NewSealHandler создает новый обработчик с сокрытием имен контактов
func NewSealHandler(handler slog.Handler) *SealHandler {
	return &SealHandler{
		handler: handler,
	}
}

// Enabled реализует интерфейс slog.Handler
func (h *SealHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *SealHandler) Handle(ctx context.Context, record slog.Record) error {
	// Создаем новую изолированную запись вместо изменения оригинальной,
	// которую slog может переиспользовать.
	r := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(sealAttr(a))
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *SealHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sealed := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		sealed[i] = sealAttr(attr)
	}
	return &SealHandler{
		handler: h.handler.WithAttrs(sealed),
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *SealHandler) WithGroup(name string) slog.Handler {
	return &SealHandler{
		handler: h.handler.WithGroup(name),
	}
}

// sealAttr скрывает значение атрибута, если его ключ относится к имени контакта
func sealAttr(a slog.Attr) slog.Attr {
	if contactAttrKeys[a.Key] && a.Value.Kind() == slog.KindString {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue(SealName(a.Value.String())),
		}
	}
	return a
}

// NewSealedLogger создает новый экземпляр slog.Logger с сокрытием имен контактов
func NewSealedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewSealHandler(handler))
}
