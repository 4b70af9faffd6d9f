package telegram

import (
	"strings"
	"testing"

	"food-tourism-assistant/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestFormatMetricsReport(t *testing.T) {
	usage := []metrics.DailyUsage{
		{Date: "2026-10-18", Total: 5, Accepted: 4, AvgConfidence: 0.82, AvgLatencyMS: 140},
	}
	health := metrics.SysHealth{AllocMB: 12, SysMB: 30, Goroutines: 8, ActiveSessions: 2, DataDiskSize: "1.2 MB"}

	output := formatMetricsReport(usage, []string{"Rendang", "Sate"}, health)

	if !strings.Contains(output, "📊 *Usage & Health Report*") {
		t.Error("Missing report header")
	}
	if !strings.Contains(output, "• *2026-10-18*: 5 photos, 4 identified (avg 82%, 140ms)") {
		t.Errorf("Missing daily usage line, got:\n%s", output)
	}
	if !strings.Contains(output, "1. Rendang\n2. Sate") {
		t.Error("Missing top dishes")
	}
	if !strings.Contains(output, "• Active Sessions: 2") || !strings.Contains(output, "• Disk Data: 1.2 MB") {
		t.Error("Missing system health")
	}

	empty := formatMetricsReport(nil, nil, health)
	if !strings.Contains(empty, "_No data yet_") {
		t.Error("Expected placeholder for empty usage")
	}
	if strings.Contains(empty, "Top Dishes") {
		t.Error("Top dishes section should be omitted without labels")
	}
}

func TestParseWeightArg(t *testing.T) {
	tests := []struct {
		arg     string
		want    float64
		wantErr bool
	}{
		{"150", 150, false},
		{" 200g", 200, false},
		{"250 gram", 250, false},
		{"75gr", 75, false},
		{"1.5", 1.5, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-10", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseWeightArg(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseWeightArg(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseWeightArg(%q) = %v, want %v", tt.arg, got, tt.want)
			}
		})
	}
}

func TestParseToggleArg(t *testing.T) {
	for _, arg := range []string{"on", "ON", " ya "} {
		if on, err := parseToggleArg(arg); err != nil || !on {
			t.Errorf("parseToggleArg(%q) = %v, %v; want true", arg, on, err)
		}
	}
	for _, arg := range []string{"off", "tidak"} {
		if on, err := parseToggleArg(arg); err != nil || on {
			t.Errorf("parseToggleArg(%q) = %v, %v; want false", arg, on, err)
		}
	}
	if _, err := parseToggleArg("maybe"); err == nil {
		t.Error("Expected an error for an unknown toggle")
	}
}

func TestIsAllowed(t *testing.T) {
	if !isAllowed(nil, 42) {
		t.Error("An empty allow-list should admit everyone")
	}
	if !isAllowed([]int64{1, 42}, 42) {
		t.Error("Expected listed user to be allowed")
	}
	if isAllowed([]int64{1}, 42) {
		t.Error("Expected unlisted user to be rejected")
	}
}

func TestImageFileID(t *testing.T) {
	t.Run("LargestPhoto", func(t *testing.T) {
		msg := &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90},
			{FileID: "large", Width: 1280},
		}}
		id, ok := imageFileID(msg)
		if !ok || id != "large" {
			t.Errorf("Expected largest photo, got %q (%v)", id, ok)
		}
	})

	t.Run("ImageDocument", func(t *testing.T) {
		msg := &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "image/webp"}}
		if id, ok := imageFileID(msg); !ok || id != "doc" {
			t.Errorf("Expected image document, got %q (%v)", id, ok)
		}
	})

	t.Run("TextOnly", func(t *testing.T) {
		msg := &tgbotapi.Message{Text: "hello", Document: &tgbotapi.Document{MimeType: "application/pdf"}}
		if _, ok := imageFileID(msg); ok {
			t.Error("Expected no image")
		}
	})
}
