// Package services содержит доменные сервисы, не привязанные к адаптерам.
package services

import (
	"sort"
	"strings"
	"time"

	"whatsapp-pdf-exporter/internal/domain"
)

// FilterOptions описывает параметры отбора сообщений перед отрисовкой.
// Нулевые поля означают отсутствие соответствующего фильтра.
type FilterOptions struct {
	// From и To задают включающий диапазон дат по распознанной отметке
	// времени. Сообщения с нераспознанной отметкой исключаются, как
	// только задана хотя бы одна граница.
	From *time.Time
	To   *time.Time
	// Keywords — список подстрок; сообщение проходит, если его текст
	// содержит хотя бы одну из них без учета регистра.
	Keywords []string
}

// empty сообщает, что ни один фильтр не задан.
func (o FilterOptions) empty() bool {
	return o.From == nil && o.To == nil && len(o.Keywords) == 0
}

// FilterService выполняет отбор сообщений с пересчетом производных полей.
type FilterService struct{}

// NewFilterService создает новый экземпляр FilterService.
func NewFilterService() *FilterService {
	return &FilterService{}
}

// Apply возвращает новую переписку, содержащую только сообщения, прошедшие
// все заданные фильтры. Исходная переписка не изменяется; список контактов
// и счетчик сообщений пересчитываются по результату.
func (s *FilterService) Apply(chat *domain.ChatData, opts FilterOptions) *domain.ChatData {
	if opts.empty() {
		return chat
	}

	keywords := make([]string, 0, len(opts.Keywords))
	for _, kw := range opts.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, strings.ToLower(kw))
		}
	}

	filtered := &domain.ChatData{
		Platform:   chat.Platform,
		MediaFiles: chat.MediaFiles,
	}
	seen := make(map[string]struct{})
	for _, msg := range chat.Messages {
		if !s.inRange(&msg, opts) || !s.matchesKeywords(&msg, keywords) {
			continue
		}
		filtered.Messages = append(filtered.Messages, msg)
		seen[msg.Sender] = struct{}{}
	}

	filtered.Contacts = make([]string, 0, len(seen))
	for sender := range seen {
		filtered.Contacts = append(filtered.Contacts, sender)
	}
	sort.Strings(filtered.Contacts)
	filtered.TotalMessages = len(filtered.Messages)
	return filtered
}

// inRange проверяет попадание отметки времени в заданный диапазон.
func (s *FilterService) inRange(msg *domain.Message, opts FilterOptions) bool {
	if opts.From == nil && opts.To == nil {
		return true
	}
	if msg.ParsedAt == nil {
		return false
	}
	if opts.From != nil && msg.ParsedAt.Before(*opts.From) {
		return false
	}
	if opts.To != nil && msg.ParsedAt.After(*opts.To) {
		return false
	}
	return true
}

// matchesKeywords проверяет вхождение хотя бы одного ключевого слова.
func (s *FilterService) matchesKeywords(msg *domain.Message, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	text := strings.ToLower(msg.Text)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
