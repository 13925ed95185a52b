package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-pdf-exporter/internal/domain"
)

func newTestLayouter(charWidth float64, available map[string]bool) *TextLayouter {
	metrics := NewCachedMetrics(&fixedMetrics{charWidth: charWidth})
	return NewTextLayouter(metrics, "DejaVu", 11, available)
}

func TestLayoutText(t *testing.T) {
	t.Run("короткий текст укладывается в одну строку", func(t *testing.T) {
		l := newTestLayouter(10, nil)
		res := l.LayoutText("hello", 200, false)

		require.Len(t, res.Glyphs, 5)
		for _, g := range res.Glyphs {
			assert.Zero(t, g.Y)
		}
		assert.Equal(t, 50.0, res.TotalWidth)
		assert.Equal(t, l.LineHeight(), res.TotalHeight)
	})

	t.Run("жадный перенос по словам", func(t *testing.T) {
		l := newTestLayouter(20, nil)
		res := l.LayoutText("aaaa bbbb", 100, false)

		require.Len(t, res.Glyphs, 8)
		// Первое слово занимает строку целиком, второе переносится.
		assert.Zero(t, res.Glyphs[3].Y)
		assert.Zero(t, res.Glyphs[4].X)
		assert.Equal(t, l.LineHeight(), res.Glyphs[4].Y)
		assert.Equal(t, 2*l.LineHeight(), res.TotalHeight)
	})

	t.Run("неразрывное слово переносится посимвольно", func(t *testing.T) {
		l := newTestLayouter(20, nil)
		res := l.LayoutText(strings.Repeat("a", 15), 200, false)

		require.Len(t, res.Glyphs, 15)
		// Десять символов по 20 pt ровно заполняют строку шириной 200 pt,
		// одиннадцатый уходит на следующую строку.
		assert.Zero(t, res.Glyphs[9].Y)
		assert.Equal(t, 180.0, res.Glyphs[9].X)
		assert.Zero(t, res.Glyphs[10].X)
		assert.Equal(t, l.LineHeight(), res.Glyphs[10].Y)
	})

	t.Run("ни один глиф не выходит за maxWidth", func(t *testing.T) {
		l := newTestLayouter(17, nil)
		const maxWidth = 120.0
		res := l.LayoutText("слова разной длины и одно оооооооооооочень длинное", maxWidth, false)

		for _, g := range res.Glyphs {
			assert.LessOrEqual(t, g.X+g.Width, maxWidth)
		}
	})

	t.Run("перевод строки начинает новую строку", func(t *testing.T) {
		l := newTestLayouter(10, nil)
		res := l.LayoutText("ab\ncd", 500, false)

		require.Len(t, res.Glyphs, 4)
		assert.Zero(t, res.Glyphs[2].X)
		assert.Equal(t, l.LineHeight(), res.Glyphs[2].Y)
		assert.Equal(t, 2*l.LineHeight(), res.TotalHeight)
	})

	t.Run("в строчном режиме перенос отключен", func(t *testing.T) {
		l := newTestLayouter(20, nil)
		res := l.LayoutText("очень длинная подпись отправителя", 50, true)

		for _, g := range res.Glyphs {
			assert.Zero(t, g.Y)
		}
		assert.Equal(t, l.LineHeight(), res.TotalHeight)
		assert.Greater(t, res.TotalWidth, 50.0)
	})

	t.Run("незагруженное семейство подбора заменяется базовым", func(t *testing.T) {
		l := newTestLayouter(10, nil)
		res := l.LayoutText("a😀", 200, false)

		require.Len(t, res.Glyphs, 2)
		assert.Equal(t, "DejaVu", res.Glyphs[1].Family)
	})

	t.Run("загруженное семейство подбора применяется к эмодзи", func(t *testing.T) {
		l := newTestLayouter(10, map[string]bool{FamilyEmoji: true})
		res := l.LayoutText("a😀", 200, false)

		require.Len(t, res.Glyphs, 2)
		assert.Equal(t, "DejaVu", res.Glyphs[0].Family)
		assert.Equal(t, FamilyEmoji, res.Glyphs[1].Family)
	})

	t.Run("раскладка детерминирована", func(t *testing.T) {
		l := newTestLayouter(13, map[string]bool{FamilyEmoji: true})
		text := "повторный прогон 😀 дает тот же результат"

		first := l.LayoutText(text, 150, false)
		second := l.LayoutText(text, 150, false)

		assert.Equal(t, first, second)
	})
}

func TestLayoutPlaceholder(t *testing.T) {
	t.Run("голосовое сообщение получает бокс на всю ширину", func(t *testing.T) {
		l := newTestLayouter(10, nil)
		msg := &domain.Message{Kind: domain.KindVoice, Filename: "PTT-20240101-WA0001.opus"}

		res := l.LayoutPlaceholder(msg, 300)

		require.NotNil(t, res.Box)
		assert.Equal(t, 300.0, res.Box.Width)
		assert.Equal(t, voiceBoxHeight, res.Box.Height)
		assert.Empty(t, res.Glyphs)
	})

	t.Run("медиа получает суженный бокс", func(t *testing.T) {
		l := newTestLayouter(10, nil)
		msg := &domain.Message{Kind: domain.KindImage, Filename: "IMG-20240101-WA0001.jpg"}

		res := l.LayoutPlaceholder(msg, 300)

		require.NotNil(t, res.Box)
		assert.Equal(t, 180.0, res.Box.Width)
		assert.Equal(t, 135.0, res.Box.Height)
	})

	t.Run("подпись раскладывается под боксом", func(t *testing.T) {
		l := newTestLayouter(10, nil)
		msg := &domain.Message{
			Kind:     domain.KindMixed,
			Filename: "IMG-20240101-WA0001.jpg",
			Text:     "смотри",
		}

		res := l.LayoutPlaceholder(msg, 300)

		require.NotNil(t, res.Box)
		require.NotEmpty(t, res.Glyphs)
		for _, g := range res.Glyphs {
			assert.GreaterOrEqual(t, g.Y, res.Box.Height+captionGap)
		}
		assert.Equal(t, res.Box.Height+captionGap+l.LineHeight(), res.TotalHeight)
	})
}
