package domain

import "time"

// MessageKind представляет тип содержимого одного сообщения.
type MessageKind string

const (
	KindText         MessageKind = "text"
	KindImage        MessageKind = "image"
	KindVideo        MessageKind = "video"
	KindVoice        MessageKind = "voice"
	KindFile         MessageKind = "file"
	KindSticker      MessageKind = "sticker"
	KindMediaOmitted MessageKind = "media_omitted"
	// KindMixed присваивается, когда классификация строки-продолжения
	// конфликтует с текущим типом сообщения.
	KindMixed MessageKind = "mixed"
)

// Platform — платформа, с которой предположительно сделан экспорт чата.
// Определяется эвристически и не влияет на корректность разбора.
type Platform string

const (
	PlatformAndroid Platform = "Android"
	PlatformIOS     Platform = "iOS"
)

// Message представляет одно сообщение чата.
// Дата и отправитель берутся из заголовочной строки; строки-продолжения
// дополняют Text, но никогда не меняют Sender и ParsedAt.
type Message struct {
	// RawDatetime — текст даты и времени так, как он записан в экспорте.
	RawDatetime string
	Sender      string
	// ParsedAt равен nil, если дату не удалось разобрать ни одним из
	// поддерживаемых форматов. Такие сообщения исключаются из фильтров
	// по диапазону дат.
	ParsedAt   *time.Time
	LineNumber int
	Kind       MessageKind
	Text       string
	// Filename — имя файла вложения для медиа-сообщений.
	Filename string
}

// Export представляет содержимое архива экспорта: сырой текст переписки
// и карту вложений "имя файла -> байты".
type Export struct {
	Transcript string
	MediaFiles map[string][]byte
}

// ChatData — результат разбора экспорта чата.
// После создания парсером структура не изменяется; внешний фильтр может
// только сузить список сообщений, создав новый экземпляр.
type ChatData struct {
	Messages []Message
	// Contacts — уникальные отправители, отсортированные лексикографически.
	Contacts []string
	Platform Platform
	// MediaFiles — вложения из архива экспорта, уже отфильтрованные
	// по списку разрешенных расширений.
	MediaFiles    map[string][]byte
	TotalMessages int
}
