package ports

import (
	"io"

	"whatsapp-pdf-exporter/internal/domain"
)

// DataSource определяет интерфейс для получения содержимого архива экспорта.
type DataSource interface {
	// Fetch читает архив и возвращает текст переписки вместе с картой вложений.
	Fetch() (*domain.Export, error)
}

// Parser определяет интерфейс для разбора текста переписки.
type Parser interface {
	// Parse преобразует сырой текст переписки в структурированную модель чата.
	Parse(rawText string) (*domain.ChatData, error)
}

// Renderer определяет интерфейс для отрисовки чата в поток вывода.
type Renderer interface {
	// Render записывает постраничный документ в w строго в порядке сообщений.
	Render(chat *domain.ChatData, w io.Writer) error
}

// FontMetrics определяет узкий интерфейс внешнего текстового движка:
// измерение ширины строки при заданном семействе шрифта и размере.
type FontMetrics interface {
	Measure(s string, family string, size float64) float64
}

// OutputSink определяет интерфейс приемника результата. При ошибке отрисовки
// частично записанный результат должен быть уничтожен через Discard, а не
// оставлен как усеченный, но внешне корректный файл.
type OutputSink interface {
	io.Writer
	// Commit фиксирует результат после успешной отрисовки.
	Commit() error
	// Discard удаляет частично записанный результат.
	Discard() error
}
