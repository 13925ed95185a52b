package domain

import "fmt"

// Таксономия ошибок конвертации. InputError, FormatError и ConfigError
// прерывают работу до записи первых байт результата; RenderError прерывает
// работу с удалением частично записанного результата; AttachmentError
// обрабатывается на уровне одного вложения и никогда не фатальна.

// InputError — архив нечитаем или в нем нет файла переписки.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return "input error: " + e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// NewInputError создает InputError с форматированным сообщением.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Err: fmt.Errorf(format, args...)}
}

// FormatError — из текста переписки не удалось извлечь ни одного сообщения.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string { return "format error: " + e.Err.Error() }
func (e *FormatError) Unwrap() error { return e.Err }

// NewFormatError создает FormatError с форматированным сообщением.
func NewFormatError(format string, args ...any) *FormatError {
	return &FormatError{Err: fmt.Errorf(format, args...)}
}

// ConfigError — некорректная структура темы или неподдерживаемый шрифт.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "config error: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError создает ConfigError с форматированным сообщением.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}

// RenderError — сбой при генерации страниц или записи в поток вывода.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "render error: " + e.Err.Error() }
func (e *RenderError) Unwrap() error { return e.Err }

// NewRenderError создает RenderError с форматированным сообщением.
func NewRenderError(format string, args ...any) *RenderError {
	return &RenderError{Err: fmt.Errorf(format, args...)}
}

// AttachmentError — сбой перекодирования одного вложения.
type AttachmentError struct {
	Filename string
	Err      error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment %s: %v", e.Filename, e.Err)
}
func (e *AttachmentError) Unwrap() error { return e.Err }
