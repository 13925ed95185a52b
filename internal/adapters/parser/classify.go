package parser

import (
	"regexp"
	"strings"

	"whatsapp-pdf-exporter/internal/domain"
)

// mediaOmittedMarker — отметка, которой экспорт заменяет вложение,
// когда сами файлы в архив не включены.
const mediaOmittedMarker = "<Media omitted>"

var (
	// Имя прикрепленного файла: IMG-20251012-WA0001.jpg (file attached)
	fileAttachedRe = regexp.MustCompile(`((?:PTT|VID|IMG|STK|DOC)-\S+\.\w+) \(file attached\)`)
	// Имя файла с известным расширением, следующее отдельной строкой
	// за отметкой <Media omitted>.
	mediaFilenameRe = regexp.MustCompile(`^\S+\.(?i:jpg|jpeg|png|gif|webp|mp4|3gp|mov|opus|m4a|ogg|mp3|aac|pdf|doc|docx|vcf|webm)$`)
)

// prefixKinds отображает префикс имени файла вложения в тип сообщения.
var prefixKinds = map[string]domain.MessageKind{
	"PTT-": domain.KindVoice,
	"VID-": domain.KindVideo,
	"IMG-": domain.KindImage,
	"STK-": domain.KindSticker,
}

// classification — результат классификации текста сообщения.
type classification struct {
	kind     domain.MessageKind
	text     string
	filename string
}

// classify определяет тип содержимого по тексту заголовочной строки
// (или одной строки-продолжения, взятой отдельно).
func classify(text string) classification {
	if strings.Contains(text, mediaOmittedMarker) {
		return classifyOmitted(text)
	}

	if m := fileAttachedRe.FindStringSubmatch(text); m != nil {
		filename := m[1]
		kind := domain.KindFile
		for prefix, k := range prefixKinds {
			if strings.HasPrefix(filename, prefix) {
				kind = k
				break
			}
		}
		rest := strings.TrimSpace(strings.Replace(text, m[0], "", 1))
		return classification{kind: kind, text: rest, filename: filename}
	}

	return classification{kind: domain.KindText, text: strings.TrimSpace(text)}
}

// classifyOmitted обрабатывает отметку <Media omitted>. Если следующая строка
// похожа на имя файла с известным расширением, она захватывается как имя
// вложения, а остаток (после первой строки) становится текстом.
func classifyOmitted(text string) classification {
	c := classification{kind: domain.KindMediaOmitted}

	lines := strings.Split(text, "\n")
	if len(lines) > 1 && mediaFilenameRe.MatchString(strings.TrimSpace(lines[1])) {
		c.filename = strings.TrimSpace(lines[1])
		c.text = strings.Join(lines[2:], "\n")
	}
	return c
}
