package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-pdf-exporter/internal/domain"
)

func TestTranscriptParser(t *testing.T) {
	t.Run("NewTranscriptParser создает корректный экземпляр", func(t *testing.T) {
		p := NewTranscriptParser()
		assert.NotNil(t, p)
	})

	t.Run("Разбор одной заголовочной строки", func(t *testing.T) {
		p := NewTranscriptParser()
		chat, err := p.Parse("[12/10/2025, 14:30] Alice: Hey! How are you?")
		require.NoError(t, err)
		require.Len(t, chat.Messages, 1)

		msg := chat.Messages[0]
		assert.Equal(t, "Alice", msg.Sender)
		assert.Equal(t, domain.KindText, msg.Kind)
		assert.Equal(t, "Hey! How are you?", msg.Text)
		require.NotNil(t, msg.ParsedAt)
		assert.Equal(t, time.Date(2025, 10, 12, 14, 30, 0, 0, time.Local), *msg.ParsedAt)
		assert.Equal(t, 1, msg.LineNumber)
	})

	t.Run("Строки-продолжения дополняют текст, не меняя отправителя", func(t *testing.T) {
		p := NewTranscriptParser()
		raw := "[12/10/2025, 14:30] Alice: первая строка\n" +
			"вторая строка\n" +
			"третья строка\n" +
			"[12/10/2025, 14:31] Bob: ответ"

		chat, err := p.Parse(raw)
		require.NoError(t, err)
		require.Len(t, chat.Messages, 2)

		assert.Equal(t, "Alice", chat.Messages[0].Sender)
		assert.Equal(t, "первая строка\nвторая строка\nтретья строка", chat.Messages[0].Text)
		assert.Equal(t, "Bob", chat.Messages[1].Sender)
		assert.Equal(t, "ответ", chat.Messages[1].Text)
	})

	t.Run("Шум до первого заголовка отбрасывается", func(t *testing.T) {
		p := NewTranscriptParser()
		raw := "Messages and calls are end-to-end encrypted.\n" +
			"[12/10/2025, 14:30] Alice: привет"

		chat, err := p.Parse(raw)
		require.NoError(t, err)
		require.Len(t, chat.Messages, 1)
		assert.Equal(t, "привет", chat.Messages[0].Text)
		assert.Equal(t, 2, chat.Messages[0].LineNumber)
	})

	t.Run("Пустой текст возвращает FormatError", func(t *testing.T) {
		p := NewTranscriptParser()
		_, err := p.Parse("просто текст без заголовков\nи еще строка")
		require.Error(t, err)

		var formatErr *domain.FormatError
		assert.True(t, errors.As(err, &formatErr))
	})

	t.Run("Контакты уникальны и отсортированы", func(t *testing.T) {
		p := NewTranscriptParser()
		raw := "[12/10/2025, 14:30] Boris: раз\n" +
			"[12/10/2025, 14:31] Alice: два\n" +
			"[12/10/2025, 14:32] Boris: три"

		chat, err := p.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Boris"}, chat.Contacts)
		assert.Equal(t, 3, chat.TotalMessages)
	})

	t.Run("Смешанный тип при конфликте продолжения", func(t *testing.T) {
		p := NewTranscriptParser()
		raw := "[12/10/2025, 14:30] Alice: IMG-20251012-WA0001.jpg (file attached)\n" +
			"а это подпись к фотографии"

		chat, err := p.Parse(raw)
		require.NoError(t, err)
		require.Len(t, chat.Messages, 1)
		assert.Equal(t, domain.KindMixed, chat.Messages[0].Kind)
		assert.Equal(t, "IMG-20251012-WA0001.jpg", chat.Messages[0].Filename)
	})

	t.Run("media_omitted не понижается до mixed", func(t *testing.T) {
		p := NewTranscriptParser()
		raw := "[12/10/2025, 14:30] Alice: <Media omitted>\n" +
			"обычный текст после отметки"

		chat, err := p.Parse(raw)
		require.NoError(t, err)
		require.Len(t, chat.Messages, 1)
		assert.Equal(t, domain.KindMediaOmitted, chat.Messages[0].Kind)
	})

	t.Run("Имя файла после отметки Media omitted захватывается", func(t *testing.T) {
		p := NewTranscriptParser()
		raw := "[12/10/2025, 14:30] Alice: <Media omitted>\n" +
			"IMG-20251012-WA0007.jpg"

		chat, err := p.Parse(raw)
		require.NoError(t, err)
		require.Len(t, chat.Messages, 1)
		assert.Equal(t, domain.KindMediaOmitted, chat.Messages[0].Kind)
		assert.Equal(t, "IMG-20251012-WA0007.jpg", chat.Messages[0].Filename)
		assert.Equal(t, "", chat.Messages[0].Text)
	})

	t.Run("Неразбираемая дата оставляет ParsedAt равным nil", func(t *testing.T) {
		p := NewTranscriptParser()
		// 12-часовое время с 4-значным годом не покрыто ни одним диалектом.
		chat, err := p.Parse("[12/10/2025, 2:30 PM] Alice: привет")
		require.NoError(t, err)
		require.Len(t, chat.Messages, 1)
		assert.Nil(t, chat.Messages[0].ParsedAt)
		assert.Equal(t, "12/10/2025, 2:30 PM", chat.Messages[0].RawDatetime)
	})

	t.Run("Детерминизм: повторный разбор дает идентичный результат", func(t *testing.T) {
		p := NewTranscriptParser()
		raw := "[12/10/2025, 14:30] Alice: привет\n" +
			"продолжение\n" +
			"[13/10/25, 9:05 AM] Bob: VID-20251013-WA0002.mp4 (file attached)"

		first, err := p.Parse(raw)
		require.NoError(t, err)
		second, err := p.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, first.Messages, second.Messages)
	})
}

func TestDetectPlatform(t *testing.T) {
	t.Run("Пять вхождений PM без 24-часовых отметок — iOS", func(t *testing.T) {
		lines := make([]string, 100)
		for i := range lines {
			lines[i] = "filler"
		}
		for i := 0; i < 5; i++ {
			lines[i] = fmt.Sprintf("[12/10/25, %d:30:00 PM] Alice: hi", i+1)
		}
		assert.Equal(t, domain.PlatformIOS, detectPlatform(lines))
	})

	t.Run("Отметка 15:00 без AM/PM — Android", func(t *testing.T) {
		lines := []string{"[12/10/2025, 15:00] Alice: hi"}
		assert.Equal(t, domain.PlatformAndroid, detectPlatform(lines))
	})

	t.Run("Учитываются только первые 100 строк", func(t *testing.T) {
		lines := make([]string, 200)
		for i := range lines {
			lines[i] = "filler"
		}
		for i := 100; i < 110; i++ {
			lines[i] = "2:30 PM"
		}
		assert.Equal(t, domain.PlatformAndroid, detectPlatform(lines))
	})
}

func TestContinuationRoundTrip(t *testing.T) {
	// Текст сообщения равен классифицированному телу заголовка плюс
	// строки-продолжения, соединенные переводом строки.
	continuations := []string{"C1", "C2 со словами", "C3"}
	header := "[12/10/2025, 14:30] Alice: тело сообщения"

	p := NewTranscriptParser()
	chat, err := p.Parse(header + "\n" + strings.Join(continuations, "\n"))
	require.NoError(t, err)
	require.Len(t, chat.Messages, 1)

	expected := classify("тело сообщения").text + "\n" + strings.Join(continuations, "\n")
	assert.Equal(t, expected, chat.Messages[0].Text)
}
