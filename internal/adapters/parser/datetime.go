package parser

import (
	"regexp"
	"strconv"
	"time"
)

// datetimeFormat — пара "матчер + экстрактор" для одного диалекта даты.
// Форматы проверяются по порядку, выигрывает первое совпадение; новый диалект
// экспорта добавляется новой записью в таблицу без изменения логики разбора.
type datetimeFormat struct {
	pattern *regexp.Regexp
	extract func(m []string) time.Time
}

var datetimeFormats = []datetimeFormat{
	{
		// 24-часовой формат с секундами: 12/10/2025, 14:30:05
		pattern: regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4}),? (\d{1,2}):(\d{2}):(\d{2})$`),
		extract: func(m []string) time.Time {
			return buildTime(m[3], m[1], m[2], m[4], m[5], m[6], "")
		},
	},
	{
		// 24-часовой формат без секунд: 12/10/2025, 14:30
		pattern: regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4}),? (\d{1,2}):(\d{2})$`),
		extract: func(m []string) time.Time {
			return buildTime(m[3], m[1], m[2], m[4], m[5], "0", "")
		},
	},
	{
		// 12-часовой формат AM/PM с секундами и 2-значным годом: 12/10/25, 2:30:05 PM
		pattern: regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}),? (\d{1,2}):(\d{2}):(\d{2}) ?([AaPp][Mm])$`),
		extract: func(m []string) time.Time {
			return buildTime(m[3], m[1], m[2], m[4], m[5], m[6], m[7])
		},
	},
	{
		// 12-часовой формат AM/PM без секунд и с 2-значным годом: 12/10/25, 2:30 PM
		pattern: regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}),? (\d{1,2}):(\d{2}) ?([AaPp][Mm])$`),
		extract: func(m []string) time.Time {
			return buildTime(m[3], m[1], m[2], m[4], m[5], "0", m[6])
		},
	},
}

// parseDatetime пытается разобрать дату всеми поддерживаемыми диалектами.
// Возвращает nil, если ни один формат не совпал.
func parseDatetime(raw string) *time.Time {
	for _, f := range datetimeFormats {
		if m := f.pattern.FindStringSubmatch(raw); m != nil {
			t := f.extract(m)
			return &t
		}
	}
	return nil
}

// buildTime собирает time.Time из текстовых компонентов D/M/Y H:M:S.
// Порядок в экспорте — день/месяц/год.
func buildTime(year, day, month, hour, minute, second, ampm string) time.Time {
	y := mustAtoi(year)
	if y < 100 {
		y = pivotYear(y)
	}

	h := mustAtoi(hour)
	switch {
	case isPM(ampm) && h != 12:
		h += 12
	case isAM(ampm) && h == 12:
		h = 0
	}

	return time.Date(y, time.Month(mustAtoi(month)), mustAtoi(day),
		h, mustAtoi(minute), mustAtoi(second), 0, time.Local)
}

// pivotYear отображает 2-значный год в 4-значный: значения меньше 50
// относятся к 20xx, остальные — к 19xx.
func pivotYear(y int) int {
	if y < 50 {
		return 2000 + y
	}
	return 1900 + y
}

func isAM(s string) bool { return s == "AM" || s == "am" || s == "Am" || s == "aM" }
func isPM(s string) bool { return s == "PM" || s == "pm" || s == "Pm" || s == "pM" }

// mustAtoi разбирает число, которое уже гарантировано регулярным выражением.
func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
