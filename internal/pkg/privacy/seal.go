// Package privacy реализует частичное сокрытие имен отправителей:
// преобразование SealName для подписей в документе и обертку slog.Handler,
// которая применяет его к именам контактов в журналах сервера.
package privacy

// SealName заменяет имя отправителя на его первые два и последние два
// символа, разделенные тремя звездочками: "Alice" -> "Al***ce".
// Работает с кодовыми точками Unicode, поэтому многобайтовые символы
// не разрезаются.
func SealName(name string) string {
	r := []rune(name)
	n := len(r)
	if n == 0 {
		return ""
	}

	head := 2
	if head > n {
		head = n
	}
	tail := n - 2
	if tail < 0 {
		tail = 0
	}
	return string(r[:head]) + "***" + string(r[tail:])
}
