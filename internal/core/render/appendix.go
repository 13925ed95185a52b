package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
	_ "golang.org/x/image/webp"

	"whatsapp-pdf-exporter/internal/domain"
)

const appendixGap = 12.0

// rejectedExtensions — форматы, которые заведомо не конвертируются
// в изображение и пропускаются без попытки декодирования.
var rejectedExtensions = map[string]struct{}{
	".opus": {},
	".mp3":  {},
	".m4a":  {},
	".ogg":  {},
	".aac":  {},
	".mp4":  {},
	".3gp":  {},
	".avi":  {},
	".mkv":  {},
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".vcf":  {},
	".txt":  {},
}

// convertAttachment декодирует вложение и перекодирует его в PNG.
// Анимированные GIF сводятся к первому кадру. Возвращает AttachmentError,
// если формат не поддерживается или данные повреждены.
func convertAttachment(name string, data []byte) ([]byte, int, int, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if _, rejected := rejectedExtensions[ext]; rejected {
		return nil, 0, 0, &domain.AttachmentError{
			Filename: name,
			Err:      fmt.Errorf("формат %s не отображается в приложении", ext),
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, &domain.AttachmentError{
			Filename: name,
			Err:      fmt.Errorf("декодирование: %w", err),
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, 0, 0, &domain.AttachmentError{
			Filename: name,
			Err:      fmt.Errorf("перекодирование в PNG: %w", err),
		}
	}

	bounds := img.Bounds()
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

// drawAppendix добавляет в конец документа приложение с вложениями.
// Вложения идут в алфавитном порядке имен файлов; изображения только
// уменьшаются до размеров области контента, но никогда не увеличиваются.
// Непригодные вложения пропускаются с предупреждением, не прерывая
// генерацию документа.
func (r *PDFRenderer) drawAppendix(media map[string][]byte) {
	th := r.theme
	contentW := r.pageW - th.Page.MarginLeft - th.Page.MarginRight
	contentH := r.pageH - th.Page.MarginTop - th.Page.MarginBottom

	names := make([]string, 0, len(media))
	for name := range media {
		names = append(names, name)
	}
	sort.Strings(names)

	r.pdf.AddPage()
	r.y = th.Page.MarginTop

	for _, name := range names {
		encoded, wpx, hpx, err := convertAttachment(name, media[name])
		if err != nil {
			slog.Warn("вложение пропущено", "filename", name, "error", err)
			continue
		}

		w, h := float64(wpx), float64(hpx)
		scale := 1.0
		if s := contentW / w; s < scale {
			scale = s
		}
		if s := contentH / h; s < scale {
			scale = s
		}
		w *= scale
		h *= scale

		if r.y+h > r.pageH-th.Page.MarginBottom {
			r.pdf.AddPage()
			r.y = th.Page.MarginTop
		}

		opt := fpdf.ImageOptions{ImageType: "PNG"}
		r.pdf.RegisterImageOptionsReader("attachment-"+name, opt, bytes.NewReader(encoded))
		r.pdf.ImageOptions("attachment-"+name, th.Page.MarginLeft, r.y, w, h, false, opt, 0, "")
		r.y += h + appendixGap
	}
}
