// Package render реализует движок отрисовки: посимвольную раскладку текста
// с подбором шрифта по диапазонам Unicode, компоновку пузырей сообщений и
// постраничную верстку документа.
package render

import "sort"

// Семейства шрифтов, используемые при подборе по письменности.
const (
	FamilyEmoji    = "NotoEmoji"
	FamilyJapanese = "NotoSansJP"
	FamilyKorean   = "NotoSansKR"
	FamilyChinese  = "NotoSansSC"
)

// supportedFamilies отображает допустимое в теме имя базового семейства
// в файл TTF в каталоге шрифтов. Пустое имя файла означает встроенный
// шрифт PDF (покрывает только латиницу).
var supportedFamilies = map[string]string{
	"DejaVu":    "DejaVuSans.ttf",
	"Roboto":    "Roboto-Regular.ttf",
	"OpenSans":  "OpenSans-Regular.ttf",
	"Helvetica": "",
	"Courier":   "",
	"Times":     "",
}

// fallbackFiles — файлы TTF для семейств подбора по письменности.
var fallbackFiles = map[string]string{
	FamilyEmoji:    "NotoEmoji-Regular.ttf",
	FamilyJapanese: "NotoSansJP-Regular.ttf",
	FamilyKorean:   "NotoSansKR-Regular.ttf",
	FamilyChinese:  "NotoSansSC-Regular.ttf",
}

// IsSupportedFamily сообщает, входит ли семейство в поддерживаемый набор.
func IsSupportedFamily(name string) bool {
	_, ok := supportedFamilies[name]
	return ok
}

// SupportedFamilies возвращает отсортированный список поддерживаемых семейств.
func SupportedFamilies() []string {
	names := make([]string, 0, len(supportedFamilies))
	for name := range supportedFamilies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// scriptRange — пара "предикат диапазона Unicode + семейство шрифта".
// Таблица перебирается сверху вниз, выигрывает первое совпадение; символы
// вне всех диапазонов набираются базовым семейством темы.
type scriptRange struct {
	family  string
	matches func(r rune) bool
}

var fallbackTable = []scriptRange{
	{FamilyEmoji, isEmoji},
	{FamilyJapanese, isJapanese},
	{FamilyKorean, isKorean},
	{FamilyChinese, isChinese},
}

// familyForRune подбирает семейство шрифта для символа.
func familyForRune(r rune, base string) string {
	for _, sr := range fallbackTable {
		if sr.matches(r) {
			return sr.family
		}
	}
	return base
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF, // пиктограммы
		r >= 0x1F600 && r <= 0x1F64F, // смайлики
		r >= 0x1F680 && r <= 0x1F6FF, // транспорт
		r >= 0x1F900 && r <= 0x1F9FF,
		r >= 0x1FA70 && r <= 0x1FAFF,
		r >= 0x2600 && r <= 0x26FF, // прочие символы
		r >= 0x2700 && r <= 0x27BF, // dingbats
		r == 0xFE0F:                // селектор вариации эмодзи
		return true
	}
	return false
}

func isJapanese(r rune) bool {
	switch {
	case r >= 0x3040 && r <= 0x309F, // хирагана
		r >= 0x30A0 && r <= 0x30FF, // катакана
		r >= 0x31F0 && r <= 0x31FF, // фонетические расширения катаканы
		r >= 0x4E00 && r <= 0x9FFF: // кандзи (общий блок CJK)
		return true
	}
	return false
}

func isKorean(r rune) bool {
	switch {
	case r >= 0xAC00 && r <= 0xD7AF, // слоги хангыля
		r >= 0x1100 && r <= 0x11FF, // чамо
		r >= 0x3130 && r <= 0x318F: // совместимые чамо
		return true
	}
	return false
}

func isChinese(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF,
		r >= 0x3400 && r <= 0x4DBF, // расширение A
		r >= 0xF900 && r <= 0xFAFF: // совместимые иероглифы
		return true
	}
	return false
}

// baselineNudge — небольшая вертикальная поправка базовой линии для глифов
// не-латинских письменностей, чтобы они визуально выравнивались с латиницей.
func baselineNudge(family string, fontSize float64) float64 {
	switch family {
	case FamilyEmoji:
		return fontSize * 0.10
	case FamilyJapanese, FamilyKorean, FamilyChinese:
		return fontSize * 0.05
	default:
		return 0
	}
}
