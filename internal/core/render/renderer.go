package render

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"whatsapp-pdf-exporter/internal/domain"
	"whatsapp-pdf-exporter/internal/pkg/config"
	"whatsapp-pdf-exporter/internal/pkg/privacy"
)

const (
	creditText     = "Generated with whatsapp-pdf-exporter"
	creditURL      = "https://github.com/whatsapp-pdf-exporter/whatsapp-pdf-exporter"
	footerFontSize = 8.0
	watermarkAngle = 45.0
	bgImageName    = "theme-background"
	// ascentRatio — доля размера шрифта от верха строки до базовой линии.
	ascentRatio = 0.8
)

// Options задает параметры одной конвертации.
type Options struct {
	// MainUser — отправитель, чьи сообщения прижимаются к правому краю.
	MainUser string
	// SealContacts включает частичное сокрытие имен отправителей.
	// Тела сообщений никогда не скрываются.
	SealContacts bool
	// IncludeMedia включает приложение с вложениями в конце документа.
	IncludeMedia bool
	// FontDir — каталог с TTF-шрифтами.
	FontDir string
	// GeneratedAt — отметка времени экспорта для нижнего колонтитула;
	// нулевое значение заменяется текущим временем.
	GeneratedAt time.Time
}

// PDFRenderer реализует интерфейс Renderer поверх движка fpdf.
// Экземпляр обслуживает ровно одну конвертацию: он владеет собственным
// кэшем ширины символов и экземпляром темы, поэтому параллельные
// конвертации не разделяют никакого состояния.
type PDFRenderer struct {
	theme   *config.ThemeConfig
	opts    Options
	pdf     *fpdf.Fpdf
	metrics *CachedMetrics
	layout  *TextLayouter

	pageW, pageH float64
	// y — вертикальный курсор текущей страницы.
	y float64

	fontColor  [3]int
	ownColor   [3]int
	otherColor [3]int
	bgColor    [3]int
	hasBgImage bool
}

// New создает отрисовщик для одной конвертации. Возвращает ConfigError,
// если базовое семейство шрифта темы не входит в поддерживаемый набор
// или его файл не удалось загрузить.
func New(theme *config.ThemeConfig, opts Options) (*PDFRenderer, error) {
	fontFile, ok := supportedFamilies[theme.Font.Family]
	if !ok {
		return nil, domain.NewConfigError("семейство шрифта %q не поддерживается (доступны: %s)",
			theme.Font.Family, strings.Join(SupportedFamilies(), ", "))
	}

	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	pdf := fpdf.New("P", "pt", "A4", opts.FontDir)
	pdf.SetAutoPageBreak(false, 0)

	available := make(map[string]bool)
	if fontFile != "" {
		pdf.AddUTF8Font(theme.Font.Family, "", fontFile)
	}
	for family, file := range fallbackFiles {
		if _, err := os.Stat(filepath.Join(opts.FontDir, file)); err != nil {
			slog.Debug("шрифт подбора недоступен, используется базовый",
				"family", family, "file", file)
			continue
		}
		pdf.AddUTF8Font(family, "", file)
		available[family] = true
	}
	if pdf.Err() {
		return nil, domain.NewConfigError("не удалось загрузить шрифты: %w", pdf.Error())
	}

	r := &PDFRenderer{
		theme: theme,
		opts:  opts,
		pdf:   pdf,
	}
	r.pageW, r.pageH = pdf.GetPageSize()
	r.fontColor = mustColor(theme.Font.Color)
	r.ownColor = mustColor(theme.Bubble.OwnColor)
	r.otherColor = mustColor(theme.Bubble.OtherColor)
	r.bgColor = mustColor(theme.Background.Color)

	r.metrics = NewCachedMetrics(newPDFMetrics(pdf))
	r.layout = NewTextLayouter(r.metrics, theme.Font.Family, theme.Font.Size, available)

	if err := r.applyMetadata(); err != nil {
		return nil, err
	}
	if err := r.registerBackgroundImage(); err != nil {
		return nil, err
	}

	pdf.AliasNbPages("")
	pdf.SetHeaderFunc(r.drawPageBackground)
	pdf.SetFooterFunc(r.drawPageDecoration)
	return r, nil
}

// applyMetadata переносит метаданные темы в документ.
func (r *PDFRenderer) applyMetadata() error {
	r.pdf.SetCreator("whatsapp-pdf-exporter", true)
	md := r.theme.Metadata
	if md == nil {
		return nil
	}
	if md.Title != "" {
		r.pdf.SetTitle(md.Title, true)
	}
	if md.Author != "" {
		r.pdf.SetAuthor(md.Author, true)
	}
	if md.Subject != "" {
		r.pdf.SetSubject(md.Subject, true)
	}
	if md.Keywords != "" {
		r.pdf.SetKeywords(md.Keywords, true)
	}
	if md.Password != "" {
		r.pdf.SetProtection(fpdf.CnProtectPrint, "", md.Password)
	}
	return nil
}

// registerBackgroundImage загружает и регистрирует фоновое изображение темы.
func (r *PDFRenderer) registerBackgroundImage() error {
	data, err := r.theme.ResolveBackgroundImage()
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}

	imageType, err := detectImageType(data)
	if err != nil {
		return domain.NewConfigError("фоновое изображение: %w", err)
	}
	r.pdf.RegisterImageOptionsReader(bgImageName,
		fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if r.pdf.Err() {
		return domain.NewConfigError("фоновое изображение: %w", r.pdf.Error())
	}
	r.hasBgImage = true
	return nil
}

// detectImageType определяет формат изображения для fpdf по содержимому.
func detectImageType(data []byte) (string, error) {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	case "image/gif":
		return "GIF", nil
	default:
		return "", fmt.Errorf("неподдерживаемый формат (ожидается PNG, JPEG или GIF)")
	}
}

// Render записывает постраничный документ в w строго в порядке сообщений.
// При любой ошибке частично записанный вывод должен быть уничтожен
// вызывающей стороной через Discard приемника.
func (r *PDFRenderer) Render(chat *domain.ChatData, w io.Writer) error {
	r.pdf.AddPage()
	r.y = r.theme.Page.MarginTop

	for i := range chat.Messages {
		r.drawMessage(&chat.Messages[i])
	}

	if r.opts.IncludeMedia && len(chat.MediaFiles) > 0 {
		r.drawAppendix(chat.MediaFiles)
	}

	if r.pdf.Err() {
		return domain.NewRenderError("генерация страниц: %w", r.pdf.Error())
	}
	if err := r.pdf.Output(w); err != nil {
		return domain.NewRenderError("запись документа: %w", err)
	}
	return nil
}

// isTextual сообщает, раскладывается ли сообщение как чистый текст.
func isTextual(msg *domain.Message) bool {
	switch msg.Kind {
	case domain.KindText:
		return true
	case domain.KindMixed:
		return msg.Filename == ""
	default:
		return false
	}
}

// drawMessage компонует и рисует один пузырь сообщения, при необходимости
// выполняя перенос страницы до начала отрисовки.
func (r *PDFRenderer) drawMessage(msg *domain.Message) {
	th := r.theme
	contentW := r.pageW - th.Page.MarginLeft - th.Page.MarginRight
	bubbleMaxW := contentW * th.Bubble.MaxWidthFraction
	innerMaxW := bubbleMaxW - 2*th.Bubble.Padding

	var body *LayoutResult
	if isTextual(msg) {
		body = r.layout.LayoutText(msg.Text, innerMaxW, false)
	} else {
		body = r.layout.LayoutPlaceholder(msg, innerMaxW)
	}

	lineH := r.layout.LineHeight()
	bubbleW := body.TotalWidth + 2*th.Bubble.Padding
	bubbleH := body.TotalHeight + 2*th.Bubble.Padding

	// Перенос страницы выполняется до отрисовки любых элементов сообщения.
	needed := lineH + bubbleH + lineH
	if r.y+needed > r.pageH-th.Page.MarginBottom {
		r.pdf.AddPage()
		r.y = th.Page.MarginTop
	}

	own := msg.Sender == r.opts.MainUser
	bubbleX := th.Page.MarginLeft
	if own {
		bubbleX = r.pageW - th.Page.MarginRight - bubbleW
	}

	// Подпись отправителя. Если подпись шире пузыря у правого края,
	// она выравнивается по полю страницы, чтобы не выйти за край.
	sender := msg.Sender
	if r.opts.SealContacts {
		sender = privacy.SealName(sender)
	}
	label := r.layout.LayoutText(sender, 0, true)
	labelX := bubbleX
	if own && label.TotalWidth > bubbleW {
		labelX = r.pageW - th.Page.MarginRight - label.TotalWidth
	}
	r.drawGlyphs(label.Glyphs, labelX, r.y, r.fontColor)
	r.y += lineH

	fill := r.otherColor
	if own {
		fill = r.ownColor
	}
	r.pdf.SetFillColor(fill[0], fill[1], fill[2])
	r.pdf.RoundedRect(bubbleX, r.y, bubbleW, bubbleH, th.Bubble.CornerRadius, "1234", "F")

	innerX := bubbleX + th.Bubble.Padding
	innerY := r.y + th.Bubble.Padding
	if body.Box != nil {
		r.drawPlaceholder(body.Box, innerX, innerY)
	}
	r.drawGlyphs(body.Glyphs, innerX, innerY, r.fontColor)
	r.y += bubbleH

	// Отметка времени под пузырем, с тем же правилом выравнивания,
	// что и у подписи отправителя.
	ts := r.layout.LayoutText(msg.RawDatetime, 0, true)
	tsX := bubbleX
	if own && ts.TotalWidth > bubbleW {
		tsX = r.pageW - th.Page.MarginRight - ts.TotalWidth
	}
	r.drawGlyphs(ts.Glyphs, tsX, r.y, [3]int{120, 120, 120})
	r.y += lineH + th.Bubble.Margin
}

// drawGlyphs рисует глифы по одному, применяя подобранное семейство шрифта
// и небольшую поправку базовой линии для не-латинских письменностей.
func (r *PDFRenderer) drawGlyphs(glyphs []GlyphPlacement, ox, oy float64, color [3]int) {
	size := r.theme.Font.Size
	r.pdf.SetTextColor(color[0], color[1], color[2])
	for _, g := range glyphs {
		r.pdf.SetFont(g.Family, "", size)
		baseline := oy + g.Y + size*ascentRatio + baselineNudge(g.Family, size)
		r.pdf.Text(ox+g.X, baseline, string(g.Char))
	}
}

// drawPlaceholder рисует бокс-заглушку нетекстового содержимого.
func (r *PDFRenderer) drawPlaceholder(box *PlaceholderBox, x, y float64) {
	r.pdf.SetFillColor(235, 235, 235)
	r.pdf.SetDrawColor(200, 200, 200)
	r.pdf.RoundedRect(x, y, box.Width, box.Height, 3, "1234", "FD")

	label := placeholderLabel(box)
	size := r.theme.Font.Size * 0.85
	r.pdf.SetFont(r.theme.Font.Family, "", size)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.Text(x+6, y+box.Height/2+size*0.35, label)
}

// placeholderLabel возвращает подпись бокса-заглушки.
func placeholderLabel(box *PlaceholderBox) string {
	var kind string
	switch box.Kind {
	case domain.KindVoice:
		kind = "voice message"
	case domain.KindImage:
		kind = "photo"
	case domain.KindVideo:
		kind = "video"
	case domain.KindSticker:
		kind = "sticker"
	case domain.KindMediaOmitted:
		kind = "media omitted"
	default:
		kind = "document"
	}
	if box.Filename != "" {
		return kind + " - " + box.Filename
	}
	return kind
}

// drawPageBackground выполняется в начале каждой страницы: сплошная заливка
// фона и необязательное фоновое изображение, растянутое на страницу.
func (r *PDFRenderer) drawPageBackground() {
	r.pdf.SetFillColor(r.bgColor[0], r.bgColor[1], r.bgColor[2])
	r.pdf.Rect(0, 0, r.pageW, r.pageH, "F")
	if r.hasBgImage {
		r.pdf.ImageOptions(bgImageName, 0, 0, r.pageW, r.pageH, false,
			fpdf.ImageOptions{}, 0, "")
	}
}

// drawPageDecoration выполняется в конце каждой страницы: нижний колонтитул
// и водяной знак. Итоговое число страниц подставляется движком вместо
// псевдонима после закрытия документа, поэтому счетчик верен, хотя страницы
// записываются по мере готовности.
func (r *PDFRenderer) drawPageDecoration() {
	th := r.theme
	fy := r.pageH - th.Page.MarginBottom + footerFontSize*1.6

	r.pdf.SetFont(th.Font.Family, "", footerFontSize)
	r.pdf.SetTextColor(130, 130, 130)

	// Отметка времени экспорта мелким шрифтом слева.
	r.pdf.Text(th.Page.MarginLeft, fy, r.opts.GeneratedAt.Format("02.01.2006 15:04"))

	// Кредит генератора с гиперссылкой по центру.
	cw := r.pdf.GetStringWidth(creditText)
	r.pdf.SetXY((r.pageW-cw)/2, fy-footerFontSize)
	r.pdf.CellFormat(cw, footerFontSize*1.2, creditText, "", 0, "C", false, 0, creditURL)

	// Номер страницы справа. Псевдоним {nb} заменяется итоговым числом лишь
	// при закрытии документа, поэтому ширина меряется по образцу с цифрами.
	pageLabel, measured := pageLabelFor(r.pdf.PageNo())
	pw := r.pdf.GetStringWidth(measured)
	r.pdf.Text(r.pageW-th.Page.MarginRight-pw, fy, pageLabel)

	r.drawWatermark()
}

// pageLabelFor возвращает подпись страницы с псевдонимом общего числа и
// строку той же формы для замера ширины. В образце псевдоним заменен
// трехзначным числом: короткие документы сдвигают подпись чуть левее края,
// но она никогда не вылезает за правое поле.
func pageLabelFor(pageNo int) (label, measured string) {
	label = fmt.Sprintf("Page %d of {nb}", pageNo)
	measured = fmt.Sprintf("Page %d of %s", pageNo, "888")
	return label, measured
}

// drawWatermark рисует водяной знак: либо один раз по центру, либо
// размножая текст по сетке, заведомо превышающей страницу, чтобы после
// поворота покрыть и углы.
func (r *PDFRenderer) drawWatermark() {
	wm := r.theme.Watermark
	if wm == nil {
		return
	}

	r.pdf.SetFont(r.theme.Font.Family, "", wm.Size)
	r.pdf.SetTextColor(150, 150, 150)
	r.pdf.SetAlpha(0.08, "Normal")
	r.pdf.TransformBegin()
	r.pdf.TransformRotate(watermarkAngle, r.pageW/2, r.pageH/2)

	tw := r.pdf.GetStringWidth(wm.Text)
	if wm.Tiled {
		stepX := tw + 60
		stepY := wm.Size * 3
		for y := -r.pageH; y < 2*r.pageH; y += stepY {
			for x := -r.pageW; x < 2*r.pageW; x += stepX {
				r.pdf.Text(x, y, wm.Text)
			}
		}
	} else {
		r.pdf.Text((r.pageW-tw)/2, r.pageH/2, wm.Text)
	}

	r.pdf.TransformEnd()
	r.pdf.SetAlpha(1, "Normal")
}

// mustColor разбирает цвет, уже проверенный валидацией темы.
func mustColor(s string) [3]int {
	cr, cg, cb, _ := config.ParseHexColor(s)
	return [3]int{cr, cg, cb}
}
