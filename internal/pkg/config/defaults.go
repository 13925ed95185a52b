package config

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost             = "0.0.0.0"
	DefaultServerPort             = 8080
	DefaultShutdownTimeoutSeconds = 15
	DefaultMaxUploadSizeMB        = 50

	// Processing defaults
	DefaultTaskTimeoutSeconds = 600
	DefaultCacheTTLMinutes    = 60

	// Rendering defaults
	DefaultFontDir = "fonts"

	// Logging defaults
	DefaultLogLevel = "info"

	// Theme defaults
	DefaultBackgroundColor        = "#ECE5DD"
	DefaultOwnBubbleColor         = "#DCF8C6"
	DefaultOtherBubbleColor       = "#FFFFFF"
	DefaultBubbleMaxWidthFraction = 0.65
	DefaultBubbleMargin           = 10.0
	DefaultBubblePadding          = 6.0
	DefaultBubbleCornerRadius     = 5.0
	DefaultFontFamily             = "DejaVu"
	DefaultFontSize               = 11.0
	DefaultFontColor              = "#111111"
	DefaultPageMargin             = 40.0
	DefaultWatermarkSize          = 42.0
)
