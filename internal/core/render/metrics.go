package render

import (
	"github.com/go-pdf/fpdf"

	"whatsapp-pdf-exporter/internal/ports"
)

// pdfMetrics — оракул ширины символов на основе текстового движка fpdf.
type pdfMetrics struct {
	pdf *fpdf.Fpdf
}

func newPDFMetrics(pdf *fpdf.Fpdf) *pdfMetrics {
	return &pdfMetrics{pdf: pdf}
}

// Measure возвращает ширину строки, временно переключая шрифт движка.
func (m *pdfMetrics) Measure(s string, family string, size float64) float64 {
	m.pdf.SetFont(family, "", size)
	return m.pdf.GetStringWidth(s)
}

// widthKey — ключ кэша ширины: семейство, размер и символ.
type widthKey struct {
	family string
	size   float64
	char   rune
}

// CachedMetrics — кэширующий декоратор поверх оракула метрик. Каждая
// конвертация владеет собственным экземпляром, поэтому кэш не требует
// синхронизации.
type CachedMetrics struct {
	oracle ports.FontMetrics
	cache  map[widthKey]float64
}

// NewCachedMetrics создает новый экземпляр CachedMetrics.
func NewCachedMetrics(oracle ports.FontMetrics) *CachedMetrics {
	return &CachedMetrics{
		oracle: oracle,
		cache:  make(map[widthKey]float64),
	}
}

// Measure возвращает ширину строки. Одиночные символы кэшируются;
// более длинные строки измеряются напрямую.
func (c *CachedMetrics) Measure(s string, family string, size float64) float64 {
	runes := []rune(s)
	if len(runes) != 1 {
		return c.oracle.Measure(s, family, size)
	}

	key := widthKey{family: family, size: size, char: runes[0]}
	if w, ok := c.cache[key]; ok {
		return w
	}
	w := c.oracle.Measure(s, family, size)
	c.cache[key] = w
	return w
}

// Size возвращает число закэшированных символов.
func (c *CachedMetrics) Size() int {
	return len(c.cache)
}
