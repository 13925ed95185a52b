package render

import (
	"regexp"
	"strings"

	"whatsapp-pdf-exporter/internal/domain"
	"whatsapp-pdf-exporter/internal/ports"
)

// GlyphPlacement — размещение одного глифа внутри блока текста.
// Координаты локальны для блока; Y указывает на верх строки.
type GlyphPlacement struct {
	Char   rune
	X, Y   float64
	Width  float64
	Family string
}

// PlaceholderBox — дескриптор бокса-заглушки для нетекстового содержимого.
type PlaceholderBox struct {
	Filename      string
	Kind          domain.MessageKind
	Width, Height float64
}

// LayoutResult — результат раскладки одного сообщения. Создается на время
// отрисовки сообщения и сразу после нее уничтожается; нигде не сохраняется.
type LayoutResult struct {
	Glyphs      []GlyphPlacement
	Box         *PlaceholderBox
	TotalWidth  float64
	TotalHeight float64
}

// Геометрия боксов-заглушек.
const (
	voiceBoxHeight     = 28.0
	mediaWidthsFactor  = 0.6
	mediaHeightsFactor = 0.45
	captionGap         = 4.0
)

var wordSplitRe = regexp.MustCompile(`[ \t]+`)

// TextLayouter выполняет посимвольную раскладку текста: жадный перенос по
// словам с посимвольным запасным переносом для неразрывных длинных цепочек.
type TextLayouter struct {
	metrics    ports.FontMetrics
	baseFamily string
	fontSize   float64
	lineHeight float64
	// available сообщает, загружено ли семейство подбора; незагруженные
	// семейства заменяются базовым.
	available map[string]bool
}

// NewTextLayouter создает новый экземпляр TextLayouter.
func NewTextLayouter(metrics ports.FontMetrics, baseFamily string, fontSize float64, available map[string]bool) *TextLayouter {
	return &TextLayouter{
		metrics:    metrics,
		baseFamily: baseFamily,
		fontSize:   fontSize,
		lineHeight: fontSize * 1.4,
		available:  available,
	}
}

// LineHeight возвращает высоту строки раскладки.
func (l *TextLayouter) LineHeight() float64 {
	return l.lineHeight
}

// familyFor подбирает семейство шрифта для символа с учетом доступности.
func (l *TextLayouter) familyFor(r rune) string {
	family := familyForRune(r, l.baseFamily)
	if family != l.baseFamily && !l.available[family] {
		return l.baseFamily
	}
	return family
}

// LayoutText раскладывает текст в блок шириной не более maxWidth.
// В режиме inline (подписи отправителей) перенос полностью отключен.
func (l *TextLayouter) LayoutText(text string, maxWidth float64, inline bool) *LayoutResult {
	res := &LayoutResult{}
	spaceWidth := l.metrics.Measure(" ", l.baseFamily, l.fontSize)

	var x, y float64
	words := wordSplitRe.Split(text, -1)
	for wi, word := range words {
		// Перенос на уровне слова выполняется до размещения.
		if !inline && x > 0 && (strings.ContainsRune(word, '\n') || x+l.wordWidth(word) > maxWidth) {
			x = 0
			y += l.lineHeight
		}

		for _, r := range word {
			if r == '\n' {
				x = 0
				y += l.lineHeight
				continue
			}

			family := l.familyFor(r)
			w := l.metrics.Measure(string(r), family, l.fontSize)
			// Посимвольный запасной перенос для слов шире maxWidth.
			if !inline && x > 0 && x+w > maxWidth {
				x = 0
				y += l.lineHeight
			}

			res.Glyphs = append(res.Glyphs, GlyphPlacement{
				Char:   r,
				X:      x,
				Y:      y,
				Width:  w,
				Family: family,
			})
			x += w
			if x > res.TotalWidth {
				res.TotalWidth = x
			}
		}

		if wi < len(words)-1 && x > 0 {
			x += spaceWidth
		}
	}

	res.TotalHeight = y + l.lineHeight
	return res
}

// wordWidth измеряет слово посимвольно с учетом подбора шрифта;
// переводы строки ширины не имеют.
func (l *TextLayouter) wordWidth(word string) float64 {
	var w float64
	for _, r := range word {
		if r == '\n' {
			continue
		}
		w += l.metrics.Measure(string(r), l.familyFor(r), l.fontSize)
	}
	return w
}

// LayoutPlaceholder строит бокс-заглушку для нетекстового сообщения.
// Голосовые сообщения получают невысокий бокс на всю ширину содержимого,
// прочие медиа — суженный бокс с высотой, пропорциональной ширине.
// Подпись, если она есть, раскладывается под боксом.
func (l *TextLayouter) LayoutPlaceholder(msg *domain.Message, maxWidth float64) *LayoutResult {
	box := &PlaceholderBox{Filename: msg.Filename, Kind: msg.Kind}
	if msg.Kind == domain.KindVoice {
		box.Width = maxWidth
		box.Height = voiceBoxHeight
	} else {
		box.Width = maxWidth * mediaWidthsFactor
		box.Height = maxWidth * mediaHeightsFactor
	}

	res := &LayoutResult{
		Box:         box,
		TotalWidth:  box.Width,
		TotalHeight: box.Height,
	}

	if caption := strings.TrimSpace(msg.Text); caption != "" {
		text := l.LayoutText(caption, maxWidth, false)
		for i := range text.Glyphs {
			text.Glyphs[i].Y += box.Height + captionGap
		}
		res.Glyphs = text.Glyphs
		if text.TotalWidth > res.TotalWidth {
			res.TotalWidth = text.TotalWidth
		}
		res.TotalHeight = box.Height + captionGap + text.TotalHeight
	}
	return res
}
