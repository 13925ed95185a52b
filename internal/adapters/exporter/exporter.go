// Package exporter содержит приемники результата отрисовки: файл на диске
// и буфер в памяти.
package exporter

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"whatsapp-pdf-exporter/internal/domain"
	"whatsapp-pdf-exporter/internal/ports"
)

// WriteDocument отрисовывает переписку в приемник, соблюдая его дисциплину:
// фиксация после успешной отрисовки, уничтожение частичного результата при
// ошибке. По целевому пути никогда не остается усеченный документ.
func WriteDocument(r ports.Renderer, sink ports.OutputSink, chat *domain.ChatData) error {
	if err := r.Render(chat, sink); err != nil {
		if discardErr := sink.Discard(); discardErr != nil {
			slog.Warn("не удалось удалить частичный результат", "error", discardErr)
		}
		return err
	}
	return sink.Commit()
}

// FileExporter записывает документ во временный файл рядом с целевым путем
// и переименовывает его при фиксации. До вызова Commit по целевому пути не
// появляется ни усеченный, ни частично записанный документ.
type FileExporter struct {
	path string
	tmp  *os.File
}

// NewFileExporter создает приемник для записи в файл по указанному пути.
func NewFileExporter(path string) (*FileExporter, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, fmt.Errorf("создание временного файла в %s: %w", dir, err)
	}
	return &FileExporter{path: path, tmp: tmp}, nil
}

// Write записывает очередную порцию документа во временный файл.
func (e *FileExporter) Write(p []byte) (int, error) {
	return e.tmp.Write(p)
}

// Commit закрывает временный файл и атомарно переносит его на целевой путь.
func (e *FileExporter) Commit() error {
	if err := e.tmp.Close(); err != nil {
		return fmt.Errorf("закрытие временного файла: %w", err)
	}
	if err := os.Rename(e.tmp.Name(), e.path); err != nil {
		return fmt.Errorf("перенос результата в %s: %w", e.path, err)
	}
	return nil
}

// Discard удаляет временный файл; целевой путь остается нетронутым.
func (e *FileExporter) Discard() error {
	e.tmp.Close()
	if err := os.Remove(e.tmp.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("удаление временного файла: %w", err)
	}
	return nil
}

// BufferExporter накапливает документ в памяти; используется сервером,
// отдающим результат по HTTP, и тестами.
type BufferExporter struct {
	buf       bytes.Buffer
	committed bool
}

// NewBufferExporter создает новый экземпляр BufferExporter.
func NewBufferExporter() *BufferExporter {
	return &BufferExporter{}
}

// Write добавляет очередную порцию документа в буфер.
func (e *BufferExporter) Write(p []byte) (int, error) {
	return e.buf.Write(p)
}

// Commit помечает буфер как содержащий завершенный документ.
func (e *BufferExporter) Commit() error {
	e.committed = true
	return nil
}

// Discard сбрасывает частично записанный буфер.
func (e *BufferExporter) Discard() error {
	e.buf.Reset()
	e.committed = false
	return nil
}

// Bytes возвращает завершенный документ; для незафиксированного буфера
// возвращается nil.
func (e *BufferExporter) Bytes() []byte {
	if !e.committed {
		return nil
	}
	return e.buf.Bytes()
}
