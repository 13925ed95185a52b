package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"whatsapp-pdf-exporter/internal/adapters/exporter"
	"whatsapp-pdf-exporter/internal/adapters/parser"
	"whatsapp-pdf-exporter/internal/adapters/source"
	"whatsapp-pdf-exporter/internal/cache"
	"whatsapp-pdf-exporter/internal/core/render"
	"whatsapp-pdf-exporter/internal/core/services"
	"whatsapp-pdf-exporter/internal/pkg/config"
	"whatsapp-pdf-exporter/internal/pkg/privacy"
	"whatsapp-pdf-exporter/internal/pkg/term"
)

func main() {
	if err := run(); err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
}

// run выполняет автономную конвертацию архива экспорта в PDF-файл.
func run() error {
	var (
		themePath  string
		outputPath string
		mainUser   string
		fromStr    string
		toStr      string
		keywords   string
		seal       bool
		noMedia    bool
		protect    bool
		force      bool
		fontDir    string
		logLevel   string
	)
	flag.StringVar(&themePath, "theme", "", "Path to a YAML theme file")
	flag.StringVar(&outputPath, "o", "chat.pdf", "Output PDF path")
	flag.StringVar(&mainUser, "me", "", "Sender whose messages align to the right")
	flag.StringVar(&fromStr, "from", "", "Keep messages from this date (YYYY-MM-DD)")
	flag.StringVar(&toStr, "to", "", "Keep messages up to this date (YYYY-MM-DD)")
	flag.StringVar(&keywords, "keywords", "", "Comma-separated keywords, keep matching messages")
	flag.BoolVar(&seal, "seal", false, "Partially hide sender names")
	flag.BoolVar(&noMedia, "no-media", false, "Skip the attachment appendix")
	flag.BoolVar(&protect, "protect", false, "Prompt for an owner password")
	flag.BoolVar(&force, "f", false, "Overwrite the output file without asking")
	flag.StringVar(&fontDir, "fonts", config.DefaultFontDir, "Directory with TTF fonts")
	flag.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf("exactly one archive path is required, usage: exporter [flags] <export.zip>")
	}
	archivePath := flag.Arg(0)

	setupLogger(logLevel)

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			ok, err := term.NewTerminal().Confirm(fmt.Sprintf("File %s already exists, overwrite", outputPath))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("file %s already exists, export canceled", outputPath)
			}
		}
	}

	hash, err := cache.CalculateFileHash(archivePath)
	if err != nil {
		return err
	}
	slog.Info("Архив прочитан", "path", archivePath, "sha256", hash)

	theme := config.DefaultTheme()
	if themePath != "" {
		theme, err = config.LoadTheme(themePath)
		if err != nil {
			return err
		}
	}

	// Пароль запрашивается, когда защита затребована флагом или темой,
	// но сама тема пароля не задает.
	themeProtect := theme.Metadata != nil && theme.Metadata.Protect && theme.Metadata.Password == ""
	if protect || themeProtect {
		password, err := term.NewTerminal().OwnerPassword()
		if err != nil {
			return err
		}
		if theme.Metadata == nil {
			theme.Metadata = &config.MetadataConfig{}
		}
		theme.Metadata.Password = password
	}

	filterOpts, err := parseFilterFlags(fromStr, toStr, keywords)
	if err != nil {
		return err
	}

	export, err := source.NewZipSource(archivePath).Fetch()
	if err != nil {
		return err
	}

	chat, err := parser.NewTranscriptParser().Parse(export.Transcript)
	if err != nil {
		return err
	}
	chat.MediaFiles = export.MediaFiles
	slog.Info("Переписка разобрана",
		"message_count", chat.TotalMessages,
		"platform", chat.Platform,
		"contacts", len(chat.Contacts))

	chat = services.NewFilterService().Apply(chat, filterOpts)

	renderer, err := render.New(theme, render.Options{
		MainUser:     mainUser,
		SealContacts: seal,
		IncludeMedia: !noMedia,
		FontDir:      fontDir,
	})
	if err != nil {
		return err
	}

	sink, err := exporter.NewFileExporter(outputPath)
	if err != nil {
		return err
	}
	if err := exporter.WriteDocument(renderer, sink, chat); err != nil {
		return err
	}

	slog.Info("Документ сохранен", "path", outputPath, "message_count", chat.TotalMessages)
	return nil
}

// setupLogger настраивает уровень логирования и частичное сокрытие имен.
func setupLogger(logLevel string) {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(privacy.NewSealedLogger(handler))
}

// parseFilterFlags собирает параметры фильтрации из флагов командной строки.
func parseFilterFlags(fromStr, toStr, keywords string) (services.FilterOptions, error) {
	var opts services.FilterOptions

	if fromStr != "" {
		from, err := time.ParseInLocation("2006-01-02", fromStr, time.Local)
		if err != nil {
			return opts, fmt.Errorf("invalid -from date %q: %w", fromStr, err)
		}
		opts.From = &from
	}
	if toStr != "" {
		to, err := time.ParseInLocation("2006-01-02", toStr, time.Local)
		if err != nil {
			return opts, fmt.Errorf("invalid -to date %q: %w", toStr, err)
		}
		// Верхняя граница включает весь указанный день.
		to = to.Add(24*time.Hour - time.Nanosecond)
		opts.To = &to
	}
	if keywords != "" {
		opts.Keywords = strings.Split(keywords, ",")
	}
	return opts, nil
}
