// Package config предоставляет управление конфигурацией приложения:
// конфигурацией сервера и темой оформления документа.
package config

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"

	"whatsapp-pdf-exporter/internal/domain"
)

// BackgroundConfig описывает фон страницы: цвет заливки и необязательное
// фоновое изображение (локальный путь, http(s)-ссылка или data URI).
type BackgroundConfig struct {
	Color string `yaml:"color"`
	Image string `yaml:"image,omitempty"`
}

// BubbleConfig описывает геометрию и цвета пузырей сообщений.
type BubbleConfig struct {
	OwnColor   string `yaml:"own_color"`
	OtherColor string `yaml:"other_color"`
	// MaxWidthFraction — максимальная ширина пузыря как доля ширины
	// содержимого страницы.
	MaxWidthFraction float64 `yaml:"max_width_fraction"`
	Margin           float64 `yaml:"margin"`
	Padding          float64 `yaml:"padding"`
	CornerRadius     float64 `yaml:"corner_radius"`
}

// FontConfig описывает базовый шрифт документа.
type FontConfig struct {
	Family string  `yaml:"family"`
	Size   float64 `yaml:"size"`
	Color  string  `yaml:"color"`
}

// PageConfig описывает поля страницы в пунктах.
type PageConfig struct {
	MarginTop    float64 `yaml:"margin_top"`
	MarginBottom float64 `yaml:"margin_bottom"`
	MarginLeft   float64 `yaml:"margin_left"`
	MarginRight  float64 `yaml:"margin_right"`
}

// MetadataConfig — необязательные метаданные документа.
type MetadataConfig struct {
	Title    string `yaml:"title,omitempty"`
	Author   string `yaml:"author,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
	Keywords string `yaml:"keywords,omitempty"`
	// Protect требует защиту документа; если Password пуст, пароль
	// владельца запрашивается интерактивно.
	Protect bool `yaml:"protect,omitempty"`
	// Password включает защиту документа паролем владельца.
	Password string `yaml:"password,omitempty"`
}

// WatermarkConfig — необязательный водяной знак.
type WatermarkConfig struct {
	Text string  `yaml:"text"`
	Size float64 `yaml:"size"`
	// Tiled: true — знак размножается по виртуальной сетке,
	// false — рисуется один раз по центру страницы.
	Tiled bool `yaml:"tiled"`
}

// ThemeConfig — тема оформления документа. Загружается и валидируется здесь;
// отрисовщик работает с ней как с неизменяемым значением, недостающие
// необязательные поля заменены значениями по умолчанию.
type ThemeConfig struct {
	Background BackgroundConfig `yaml:"background"`
	Bubble     BubbleConfig     `yaml:"bubble"`
	Font       FontConfig       `yaml:"font"`
	Page       PageConfig       `yaml:"page"`
	Metadata   *MetadataConfig  `yaml:"metadata,omitempty"`
	Watermark  *WatermarkConfig `yaml:"watermark,omitempty"`

	// dir — каталог файла темы; относительные пути фонового изображения
	// разрешаются относительно него.
	dir string
}

// DefaultTheme возвращает тему со значениями по умолчанию.
func DefaultTheme() *ThemeConfig {
	t := &ThemeConfig{}
	t.applyDefaults()
	return t
}

// LoadTheme загружает тему из YAML-файла и валидирует ее.
func LoadTheme(path string) (*ThemeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewConfigError("не удалось прочитать файл темы %s: %w", path, err)
	}

	var theme ThemeConfig
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return nil, domain.NewConfigError("не удалось разобрать YAML темы: %w", err)
	}

	theme.dir = filepath.Dir(path)
	theme.applyDefaults()
	if err := theme.Validate(); err != nil {
		return nil, err
	}
	return &theme, nil
}

// applyDefaults подставляет значения по умолчанию вместо отсутствующих
// необязательных полей.
func (t *ThemeConfig) applyDefaults() {
	if t.Background.Color == "" {
		t.Background.Color = DefaultBackgroundColor
	}
	if t.Bubble.OwnColor == "" {
		t.Bubble.OwnColor = DefaultOwnBubbleColor
	}
	if t.Bubble.OtherColor == "" {
		t.Bubble.OtherColor = DefaultOtherBubbleColor
	}
	if t.Bubble.MaxWidthFraction == 0 {
		t.Bubble.MaxWidthFraction = DefaultBubbleMaxWidthFraction
	}
	if t.Bubble.Margin == 0 {
		t.Bubble.Margin = DefaultBubbleMargin
	}
	if t.Bubble.Padding == 0 {
		t.Bubble.Padding = DefaultBubblePadding
	}
	if t.Bubble.CornerRadius == 0 {
		t.Bubble.CornerRadius = DefaultBubbleCornerRadius
	}
	if t.Font.Family == "" {
		t.Font.Family = DefaultFontFamily
	}
	if t.Font.Size == 0 {
		t.Font.Size = DefaultFontSize
	}
	if t.Font.Color == "" {
		t.Font.Color = DefaultFontColor
	}
	if t.Page.MarginTop == 0 {
		t.Page.MarginTop = DefaultPageMargin
	}
	if t.Page.MarginBottom == 0 {
		t.Page.MarginBottom = DefaultPageMargin
	}
	if t.Page.MarginLeft == 0 {
		t.Page.MarginLeft = DefaultPageMargin
	}
	if t.Page.MarginRight == 0 {
		t.Page.MarginRight = DefaultPageMargin
	}
	if t.Watermark != nil && t.Watermark.Size == 0 {
		t.Watermark.Size = DefaultWatermarkSize
	}
}

// Validate проверяет, являются ли значения темы допустимыми.
func (t *ThemeConfig) Validate() error {
	for name, c := range map[string]string{
		"background.color":   t.Background.Color,
		"bubble.own_color":   t.Bubble.OwnColor,
		"bubble.other_color": t.Bubble.OtherColor,
		"font.color":         t.Font.Color,
	} {
		if _, _, _, err := ParseHexColor(c); err != nil {
			return domain.NewConfigError("%s: %w", name, err)
		}
	}

	if t.Bubble.MaxWidthFraction <= 0 || t.Bubble.MaxWidthFraction > 1 {
		return domain.NewConfigError("bubble.max_width_fraction должно быть в интервале (0, 1]")
	}
	if t.Bubble.Margin < 0 || t.Bubble.Padding < 0 || t.Bubble.CornerRadius < 0 {
		return domain.NewConfigError("геометрия пузыря не может быть отрицательной")
	}
	if t.Font.Size <= 0 {
		return domain.NewConfigError("font.size должно быть положительным")
	}
	if t.Page.MarginTop < 0 || t.Page.MarginBottom < 0 || t.Page.MarginLeft < 0 || t.Page.MarginRight < 0 {
		return domain.NewConfigError("поля страницы не могут быть отрицательными")
	}
	if t.Watermark != nil {
		if t.Watermark.Text == "" {
			return domain.NewConfigError("watermark.text не может быть пустым")
		}
		if t.Watermark.Size <= 0 {
			return domain.NewConfigError("watermark.size должно быть положительным")
		}
	}
	return nil
}

// ResolveBackgroundImage загружает фоновое изображение темы: локальный файл
// (относительно каталога темы), http(s)-ссылку или base64 data URI.
// Возвращает nil без ошибки, если изображение не задано.
func (t *ThemeConfig) ResolveBackgroundImage() ([]byte, error) {
	ref := strings.TrimSpace(t.Background.Image)
	if ref == "" {
		return nil, nil
	}

	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		resp, err := http.Get(ref)
		if err != nil {
			return nil, domain.NewConfigError("не удалось загрузить фоновое изображение %s: %w", ref, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, domain.NewConfigError("фоновое изображение %s: статус %d", ref, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, domain.NewConfigError("не удалось прочитать фоновое изображение %s: %w", ref, err)
		}
		return data, nil
	case strings.HasPrefix(ref, "data:"):
		idx := strings.Index(ref, ",")
		if idx < 0 {
			return nil, domain.NewConfigError("некорректный data URI фонового изображения")
		}
		data, err := base64.StdEncoding.DecodeString(ref[idx+1:])
		if err != nil {
			return nil, domain.NewConfigError("не удалось декодировать base64 фонового изображения: %w", err)
		}
		return data, nil
	default:
		path := ref
		if !filepath.IsAbs(path) {
			path = filepath.Join(t.dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.NewConfigError("не удалось прочитать фоновое изображение %s: %w", path, err)
		}
		return data, nil
	}
}

var hexColorRe = regexp.MustCompile(`^#?([0-9a-fA-F]{6})$`)

// ParseHexColor разбирает цвет вида "#RRGGBB" в компоненты RGB.
func ParseHexColor(s string) (r, g, b int, err error) {
	m := hexColorRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, 0, fmt.Errorf("недопустимый цвет %q, ожидается #RRGGBB", s)
	}
	var v int
	if _, err := fmt.Sscanf(m[1], "%06x", &v); err != nil {
		return 0, 0, 0, err
	}
	return v >> 16 & 0xFF, v >> 8 & 0xFF, v & 0xFF, nil
}
