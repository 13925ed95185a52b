package source

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"whatsapp-pdf-exporter/internal/domain"
	"whatsapp-pdf-exporter/internal/ports"
)

// transcriptPrefix — фиксированный префикс имени файла переписки в архиве
// экспорта (сравнение без учета регистра).
const transcriptPrefix = "whatsapp chat"

// allowedExtensions — список разрешенных расширений вложений. Всё остальное
// (служебные файлы платформы, каталоги) игнорируется.
var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".mp4": true, ".3gp": true, ".mov": true, ".webm": true,
	".opus": true, ".m4a": true, ".ogg": true, ".mp3": true, ".aac": true,
	".pdf": true, ".doc": true, ".docx": true, ".vcf": true,
}

// Ограничение на размер одного распакованного файла для защиты
// от декомпрессионных бомб.
const maxEntrySize = 1 << 30

// ZipSource реализует интерфейс DataSource для чтения архива экспорта с диска.
type ZipSource struct {
	filePath string
}

// NewZipSource создает новый экземпляр ZipSource.
func NewZipSource(filePath string) ports.DataSource {
	return &ZipSource{filePath: filePath}
}

// Fetch читает архив по указанному пути и возвращает его содержимое.
func (s *ZipSource) Fetch() (*domain.Export, error) {
	if s.filePath == "" {
		return nil, domain.NewInputError("не указан путь к архиву экспорта")
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, domain.NewInputError("не удалось прочитать архив %s: %w", s.filePath, err)
	}

	return readArchive(data)
}

// MemorySource реализует интерфейс DataSource для чтения архива из памяти
// (загрузки на сервер, тесты).
type MemorySource struct {
	data []byte
}

// NewMemorySource создает новый экземпляр MemorySource.
func NewMemorySource(data []byte) ports.DataSource {
	return &MemorySource{data: data}
}

// Fetch разбирает архив, хранящийся в памяти.
func (s *MemorySource) Fetch() (*domain.Export, error) {
	if s.data == nil {
		return nil, domain.NewInputError("данные архива не установлены")
	}
	return readArchive(s.data)
}

// readArchive извлекает из zip-архива текст переписки и вложения.
// Отсутствие файла переписки — InputError.
func readArchive(data []byte) (*domain.Export, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewInputError("архив нечитаем: %w", err)
	}

	export := &domain.Export{MediaFiles: make(map[string][]byte)}
	found := false

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Base(f.Name)
		if strings.HasPrefix(f.Name, "__MACOSX/") || strings.HasPrefix(name, ".") {
			continue
		}

		lower := strings.ToLower(name)
		switch {
		case strings.HasPrefix(lower, transcriptPrefix) && strings.HasSuffix(lower, ".txt"):
			content, err := readEntry(f)
			if err != nil {
				return nil, domain.NewInputError("не удалось прочитать файл переписки %s: %w", f.Name, err)
			}
			export.Transcript = stripInvisible(string(content))
			found = true
		case allowedExtensions[path.Ext(lower)]:
			content, err := readEntry(f)
			if err != nil {
				return nil, domain.NewInputError("не удалось прочитать вложение %s: %w", f.Name, err)
			}
			export.MediaFiles[name] = content
		}
	}

	if !found {
		return nil, domain.NewInputError("в архиве нет файла переписки")
	}
	return export, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(rc, maxEntrySize)); err != nil {
		return nil, fmt.Errorf("копирование содержимого: %w", err)
	}
	return buf.Bytes(), nil
}

// stripInvisible удаляет невидимые управляющие символы (метки направления
// письма, пробелы нулевой ширины, BOM), которые экспорт вставляет в текст.
func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200e', '\u200f', '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1
		default:
			return r
		}
	}, s)
}
