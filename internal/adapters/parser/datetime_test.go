package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDatetime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "24-часовой формат с секундами",
			input:    "12/10/2025, 14:30:05",
			expected: time.Date(2025, 10, 12, 14, 30, 5, 0, time.Local),
		},
		{
			name:     "24-часовой формат без секунд",
			input:    "12/10/2025, 14:30",
			expected: time.Date(2025, 10, 12, 14, 30, 0, 0, time.Local),
		},
		{
			name:     "24-часовой формат без запятой",
			input:    "1/2/2024 9:05",
			expected: time.Date(2024, 2, 1, 9, 5, 0, 0, time.Local),
		},
		{
			name:     "12-часовой формат с секундами",
			input:    "12/10/25, 2:30:05 PM",
			expected: time.Date(2025, 10, 12, 14, 30, 5, 0, time.Local),
		},
		{
			name:     "12-часовой формат без секунд",
			input:    "12/10/25, 2:30 PM",
			expected: time.Date(2025, 10, 12, 14, 30, 0, 0, time.Local),
		},
		{
			name:     "12 AM превращается в 0 часов",
			input:    "12/10/25, 12:15 AM",
			expected: time.Date(2025, 10, 12, 0, 15, 0, 0, time.Local),
		},
		{
			name:     "12 PM остается 12 часами",
			input:    "12/10/25, 12:15 PM",
			expected: time.Date(2025, 10, 12, 12, 15, 0, 0, time.Local),
		},
		{
			name:     "Год меньше 50 относится к 20xx",
			input:    "1/1/49, 10:00",
			expected: time.Date(2049, 1, 1, 10, 0, 0, 0, time.Local),
		},
		{
			name:     "Год 50 и больше относится к 19xx",
			input:    "1/1/50, 10:00",
			expected: time.Date(1950, 1, 1, 10, 0, 0, 0, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDatetime(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, *got)
		})
	}

	t.Run("Неизвестный формат возвращает nil", func(t *testing.T) {
		assert.Nil(t, parseDatetime("2025-10-12T14:30:00"))
		assert.Nil(t, parseDatetime("вчера в 14:30"))
		assert.Nil(t, parseDatetime(""))
	})
}
