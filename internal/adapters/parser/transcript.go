package parser

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"whatsapp-pdf-exporter/internal/domain"
	"whatsapp-pdf-exporter/internal/ports"
)

// Заголовочные шаблоны пробуются по порядку, выигрывает первое совпадение.
// Первый покрывает 24-часовые экспорты (и допускает AM/PM), второй — более
// строгий 12-часовой вариант с 2-значным годом.
var headerPatterns = []*regexp.Regexp{
	// Общий формат: [12/10/2025, 14:30] Alice: текст (скобки и запятая необязательны)
	regexp.MustCompile(`^\[?(\d{1,2}/\d{1,2}/\d{2,4},? \d{1,2}:\d{2}(?::\d{2})?(?: ?[AaPp][Mm])?)\]?(?: -)? ([^:]+): (.*)$`),
	// 12-часовой вариант с 2-значным годом: 12/10/25, 2:30 PM - Alice: текст
	regexp.MustCompile(`^\[?(\d{1,2}/\d{1,2}/\d{2},? \d{1,2}:\d{2}(?::\d{2})? [AaPp][Mm])\]?(?: -)? ([^:]+): (.*)$`),
}

// TranscriptParser реализует интерфейс Parser для построчного разбора
// текста экспорта переписки.
type TranscriptParser struct{}

// NewTranscriptParser создает новый экземпляр TranscriptParser.
func NewTranscriptParser() ports.Parser {
	return &TranscriptParser{}
}

// Parse преобразует сырой текст переписки в структурированную модель чата.
// Возвращает FormatError, если не удалось извлечь ни одного сообщения.
func (p *TranscriptParser) Parse(rawText string) (*domain.ChatData, error) {
	lines := strings.Split(rawText, "\n")

	var messages []domain.Message
	sm := stateMachine{}

	for i, line := range lines {
		if emitted := sm.step(line, i+1); emitted != nil {
			messages = append(messages, *emitted)
		}
	}
	if final := sm.finish(); final != nil {
		messages = append(messages, *final)
	}

	if len(messages) == 0 {
		return nil, domain.NewFormatError("в тексте переписки не найдено ни одного сообщения")
	}

	return &domain.ChatData{
		Messages:      messages,
		Contacts:      collectContacts(messages),
		Platform:      detectPlatform(lines),
		TotalMessages: len(messages),
	}, nil
}

// parserState — состояние построчного разбора.
type parserState int

const (
	// stateIdle — сообщение еще не открыто; строки без заголовка отбрасываются.
	stateIdle parserState = iota
	// stateAccumulating — открыто незавершенное сообщение, строки без
	// заголовка присоединяются к нему как продолжения.
	stateAccumulating
)

// stateMachine — явный двухсостоянийный автомат разбора. Каждый вызов step
// обрабатывает одну строку и возвращает завершенное сообщение, если переход
// его выпустил.
type stateMachine struct {
	state   parserState
	pending domain.Message
}

// step выполняет переход автомата по одной строке.
func (sm *stateMachine) step(rawLine string, lineNumber int) *domain.Message {
	line := strings.TrimSpace(rawLine)
	if line == "" {
		return nil
	}

	if header := matchHeader(line); header != nil {
		var emitted *domain.Message
		if sm.state == stateAccumulating {
			m := sm.pending
			emitted = &m
		}

		c := classify(header.body)
		parsed := parseDatetime(header.datetime)
		if parsed == nil {
			slog.Warn("не удалось разобрать дату сообщения",
				"raw", header.datetime, "line", lineNumber)
		}
		sm.state = stateAccumulating
		sm.pending = domain.Message{
			RawDatetime: header.datetime,
			Sender:      strings.TrimSpace(header.sender),
			ParsedAt:    parsed,
			LineNumber:  lineNumber,
			Kind:        c.kind,
			Text:        c.text,
			Filename:    c.filename,
		}
		return emitted
	}

	if sm.state == stateIdle {
		// Шум до начала переписки.
		return nil
	}

	// Строка-продолжение: дополняет текст, но никогда не меняет
	// отправителя и дату.
	if sm.pending.Kind == domain.KindMediaOmitted {
		// За отметкой <Media omitted> первой строкой-продолжением может идти
		// имя файла вложения; оно захватывается отдельно и в текст не попадает.
		if sm.pending.Filename == "" && sm.pending.Text == "" && mediaFilenameRe.MatchString(line) {
			sm.pending.Filename = line
			return nil
		}
		sm.pending.Text += "\n" + rawLine
		return nil
	}

	sm.pending.Text += "\n" + rawLine
	c := classify(rawLine)
	if c.kind != sm.pending.Kind && c.kind != domain.KindMediaOmitted {
		sm.pending.Kind = domain.KindMixed
	}
	return nil
}

// finish завершает разбор и возвращает незакрытое сообщение, если оно есть.
func (sm *stateMachine) finish() *domain.Message {
	if sm.state != stateAccumulating {
		return nil
	}
	m := sm.pending
	sm.state = stateIdle
	return &m
}

// headerMatch — разобранные компоненты заголовочной строки.
type headerMatch struct {
	datetime string
	sender   string
	body     string
}

// matchHeader пробует заголовочные шаблоны по порядку.
func matchHeader(line string) *headerMatch {
	for _, re := range headerPatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			return &headerMatch{datetime: m[1], sender: m[2], body: m[3]}
		}
	}
	return nil
}

// collectContacts возвращает уникальных отправителей в лексикографическом порядке.
func collectContacts(messages []domain.Message) []string {
	seen := make(map[string]bool)
	var contacts []string
	for _, m := range messages {
		if !seen[m.Sender] {
			seen[m.Sender] = true
			contacts = append(contacts, m.Sender)
		}
	}
	sort.Strings(contacts)
	return contacts
}

// detectPlatform определяет платформу экспорта по первым 100 строкам.
// Эвристика: больше трех вхождений " AM"/" PM" — iOS, иначе Android
// (24-часовое время и случай по умолчанию дают один и тот же ответ).
func detectPlatform(lines []string) domain.Platform {
	limit := len(lines)
	if limit > 100 {
		limit = 100
	}

	ampm := 0
	for _, line := range lines[:limit] {
		ampm += strings.Count(line, " AM") + strings.Count(line, " PM")
	}

	if ampm > 3 {
		return domain.PlatformIOS
	}
	return domain.PlatformAndroid
}
