package render

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-pdf-exporter/internal/domain"
	"whatsapp-pdf-exporter/internal/pkg/config"
)

// helveticaTheme возвращает тему на встроенном шрифте PDF, не требующем
// файлов TTF в каталоге шрифтов.
func helveticaTheme() *config.ThemeConfig {
	theme := config.DefaultTheme()
	theme.Font.Family = "Helvetica"
	return theme
}

func testChat() *domain.ChatData {
	ts := time.Date(2024, 3, 12, 14, 5, 0, 0, time.Local)
	return &domain.ChatData{
		Messages: []domain.Message{
			{
				RawDatetime: "12/03/2024, 14:05",
				Sender:      "Alice",
				ParsedAt:    &ts,
				LineNumber:  1,
				Kind:        domain.KindText,
				Text:        "hello there",
			},
			{
				RawDatetime: "12/03/2024, 14:06",
				Sender:      "Bob",
				LineNumber:  2,
				Kind:        domain.KindImage,
				Filename:    "IMG-20240312-WA0001.jpg",
			},
			{
				RawDatetime: "12/03/2024, 14:07",
				Sender:      "Alice",
				LineNumber:  3,
				Kind:        domain.KindVoice,
				Filename:    "PTT-20240312-WA0002.opus",
			},
		},
		Contacts:      []string{"Alice", "Bob"},
		Platform:      domain.PlatformAndroid,
		TotalMessages: 3,
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	t.Run("неизвестное семейство шрифта отклоняется", func(t *testing.T) {
		theme := config.DefaultTheme()
		theme.Font.Family = "ComicSans"

		_, err := New(theme, Options{FontDir: t.TempDir()})

		require.Error(t, err)
		var cfgErr *domain.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("встроенный шрифт не требует файлов", func(t *testing.T) {
		r, err := New(helveticaTheme(), Options{FontDir: t.TempDir()})

		require.NoError(t, err)
		require.NotNil(t, r)
	})
}

func TestRender(t *testing.T) {
	t.Run("документ записывается с заголовком PDF", func(t *testing.T) {
		r, err := New(helveticaTheme(), Options{
			MainUser: "Alice",
			FontDir:  t.TempDir(),
		})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, r.Render(testChat(), &buf))

		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	})

	t.Run("водяной знак и метаданные не ломают генерацию", func(t *testing.T) {
		theme := helveticaTheme()
		theme.Metadata = &config.MetadataConfig{Title: "Family chat", Author: "Alice"}
		theme.Watermark = &config.WatermarkConfig{Text: "DRAFT", Size: 42, Tiled: true}

		r, err := New(theme, Options{MainUser: "Alice", FontDir: t.TempDir()})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, r.Render(testChat(), &buf))
		assert.NotZero(t, buf.Len())
	})

	t.Run("длинная переписка переносится на новые страницы", func(t *testing.T) {
		chat := testChat()
		for i := 0; i < 120; i++ {
			chat.Messages = append(chat.Messages, domain.Message{
				RawDatetime: "12/03/2024, 15:00",
				Sender:      "Bob",
				Kind:        domain.KindText,
				Text:        "line after line after line",
			})
		}

		r, err := New(helveticaTheme(), Options{MainUser: "Alice", FontDir: t.TempDir()})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, r.Render(chat, &buf))
		assert.Greater(t, r.pdf.PageCount(), 1)
	})

	t.Run("приложение с вложениями добавляется при включенной опции", func(t *testing.T) {
		chat := testChat()
		chat.MediaFiles = map[string][]byte{
			"IMG-20240312-WA0001.png":  pngBytes(t, 40, 30),
			"PTT-20240312-WA0002.opus": []byte("not an image"),
		}

		r, err := New(helveticaTheme(), Options{
			MainUser:     "Alice",
			IncludeMedia: true,
			FontDir:      t.TempDir(),
		})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, r.Render(chat, &buf))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	})

	t.Run("сокрытие имен применяется к подписям", func(t *testing.T) {
		r, err := New(helveticaTheme(), Options{
			MainUser:     "Alice",
			SealContacts: true,
			FontDir:      t.TempDir(),
		})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, r.Render(testChat(), &buf))
		assert.NotZero(t, buf.Len())
	})
}

func TestPageLabelFor(t *testing.T) {
	t.Run("подпись содержит псевдоним, а образец для замера только цифры", func(t *testing.T) {
		label, measured := pageLabelFor(7)

		assert.Equal(t, "Page 7 of {nb}", label)
		assert.Equal(t, "Page 7 of 888", measured)
		assert.NotContains(t, measured, "{nb}")
	})
}

func TestConvertAttachment(t *testing.T) {
	t.Run("PNG перекодируется с сохранением размеров", func(t *testing.T) {
		encoded, w, h, err := convertAttachment("IMG-1.png", pngBytes(t, 64, 48))

		require.NoError(t, err)
		assert.Equal(t, 64, w)
		assert.Equal(t, 48, h)

		decoded, err := png.Decode(bytes.NewReader(encoded))
		require.NoError(t, err)
		assert.Equal(t, 64, decoded.Bounds().Dx())
	})

	t.Run("аудио отклоняется без попытки декодирования", func(t *testing.T) {
		_, _, _, err := convertAttachment("PTT-1.opus", []byte("audio"))

		var attErr *domain.AttachmentError
		require.ErrorAs(t, err, &attErr)
		assert.Equal(t, "PTT-1.opus", attErr.Filename)
	})

	t.Run("поврежденные данные дают AttachmentError", func(t *testing.T) {
		_, _, _, err := convertAttachment("IMG-1.jpg", []byte("garbage"))

		var attErr *domain.AttachmentError
		assert.ErrorAs(t, err, &attErr)
	})
}
