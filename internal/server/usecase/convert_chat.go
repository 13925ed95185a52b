// Package usecase содержит сценарии использования сервера: полный конвейер
// конвертации архива экспорта в PDF-документ.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"whatsapp-pdf-exporter/internal/adapters/exporter"
	"whatsapp-pdf-exporter/internal/adapters/source"
	"whatsapp-pdf-exporter/internal/cache"
	"whatsapp-pdf-exporter/internal/core/render"
	"whatsapp-pdf-exporter/internal/core/services"
	"whatsapp-pdf-exporter/internal/pkg/config"
	"whatsapp-pdf-exporter/internal/ports"
)

// ConvertOptions задает параметры одной конвертации.
type ConvertOptions struct {
	MainUser     string
	SealContacts bool
	IncludeMedia bool
	Filter       services.FilterOptions
	// Theme переопределяет тему сервера для этого запроса. Запросы с
	// собственной темой не кэшируются.
	Theme *config.ThemeConfig
}

// ConvertChatUseCase инкапсулирует бизнес-логику конвертации архива
// экспорта переписки в PDF-документ.
type ConvertChatUseCase struct {
	cfg        *config.Config
	theme      *config.ThemeConfig
	parser     ports.Parser
	filter     *services.FilterService
	cacheStore *cache.CacheStore
}

// NewConvertChatUseCase создает новый экземпляр ConvertChatUseCase.
func NewConvertChatUseCase(
	cfg *config.Config,
	theme *config.ThemeConfig,
	parser ports.Parser,
	filter *services.FilterService,
	cacheStore *cache.CacheStore,
) *ConvertChatUseCase {
	return &ConvertChatUseCase{
		cfg:        cfg,
		theme:      theme,
		parser:     parser,
		filter:     filter,
		cacheStore: cacheStore,
	}
}

// ConvertChat выполняет конвейер источник → разбор → фильтр → отрисовка
// и возвращает готовый PDF-документ. Результаты запросов без собственной
// темы кэшируются по хешу архива и параметрам конвертации.
func (uc *ConvertChatUseCase) ConvertChat(ctx context.Context, archive []byte, opts ConvertOptions) ([]byte, error) {
	key := uc.CacheKey(archive, opts)
	if key != "" {
		if item, found := uc.cacheStore.Get(key); found {
			slog.Info("Попадание в кэш", "hash", key)
			return item.Data, nil
		}
	}

	export, err := source.NewMemorySource(archive).Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось извлечь данные из архива: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chat, err := uc.parser.Parse(export.Transcript)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать переписку: %w", err)
	}
	chat.MediaFiles = export.MediaFiles
	slog.Info("Переписка разобрана",
		"message_count", chat.TotalMessages,
		"platform", chat.Platform,
		"media_count", len(chat.MediaFiles))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chat = uc.filter.Apply(chat, opts.Filter)
	slog.Info("Фильтры применены", "message_count", chat.TotalMessages)

	theme := uc.theme
	if opts.Theme != nil {
		theme = opts.Theme
	}
	renderer, err := render.New(theme, render.Options{
		MainUser:     opts.MainUser,
		SealContacts: opts.SealContacts,
		IncludeMedia: opts.IncludeMedia,
		FontDir:      uc.cfg.Rendering.FontDir,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sink := exporter.NewBufferExporter()
	if err := exporter.WriteDocument(renderer, sink, chat); err != nil {
		return nil, err
	}
	data := sink.Bytes()

	if key != "" {
		ttl := time.Duration(uc.cfg.Processing.CacheTTLMinutes) * time.Minute
		uc.cacheStore.Put(key, data, ttl)
		slog.Info("Результат кэширован", "hash", key, "ttl", ttl.String())
	}

	slog.Info("Конвертация успешно завершена", "pdf_size", len(data))
	return data, nil
}

// LookupCached возвращает готовый документ по хешу архива, если он еще
// находится в кэше.
func (uc *ConvertChatUseCase) LookupCached(key string) ([]byte, bool) {
	item, found := uc.cacheStore.Get(key)
	if !found {
		return nil, false
	}
	return item.Data, true
}

// CacheKey строит ключ кэша из хеша архива и параметров конвертации.
// Ключ возвращается клиенту вместе с идентификатором задачи, чтобы
// повторный запрос мог обратиться к кэшу, не загружая архив заново.
// Пустой ключ означает, что запрос не кэшируется.
func (uc *ConvertChatUseCase) CacheKey(archive []byte, opts ConvertOptions) string {
	if opts.Theme != nil {
		return ""
	}
	fingerprint := fmt.Sprintf("%s|%s|%t|%t|%v|%v|%v",
		cache.CalculateHash(archive),
		opts.MainUser,
		opts.SealContacts,
		opts.IncludeMedia,
		opts.Filter.From,
		opts.Filter.To,
		opts.Filter.Keywords)
	return cache.CalculateHash([]byte(fingerprint))
}
