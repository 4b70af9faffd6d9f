package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"food-tourism-assistant/internal/config"
	"food-tourism-assistant/internal/metrics"
	"food-tourism-assistant/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxPhotoBytes bounds downloaded photos.
const maxPhotoBytes = 10 << 20

// Bot wraps the Telegram API and the conversation sessions.
type Bot struct {
	api          *tgbotapi.BotAPI
	sessions     *session.Store
	metricsStore *metrics.Store
	cfg          *config.Config
	httpClient   *http.Client
	dataDir      string
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, sessions *session.Store, metricsStore *metrics.Store, dataDir string) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	webhookURL := cfg.TelegramWebhookURL
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		sessions:     sessions,
		metricsStore: metricsStore,
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		dataDir:      dataDir,
	}, nil
}

// RegisterHandlers registers the webhook handler with mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !isAllowed(b.cfg.TelegramAllowedUserIDs, update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

// isAllowed reports whether userID may use the bot. An empty list allows
// everyone.
func isAllowed(allowed []int64, userID int64) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, id := range allowed {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	sess := b.sessions.Get(strconv.FormatInt(msg.Chat.ID, 10))

	if msg.IsCommand() {
		b.handleCommand(sess, msg)
		return
	}

	if fileID, ok := imageFileID(msg); ok {
		b.handlePhoto(sess, msg.Chat.ID, fileID)
		return
	}

	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	reply := sess.Ask(msg.Text)
	b.sendMarkdown(msg.Chat.ID, reply.Content)
}

// imageFileID returns the largest photo size or an image document.
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if n := len(msg.Photo); n > 0 {
		return msg.Photo[n-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

func (b *Bot) handleCommand(sess *session.Session, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.sendMarkdown(msg.Chat.ID, helpText)
	case "reset":
		b.sendMarkdown(msg.Chat.ID, sess.Reset().Content)
	case "weight", "berat":
		grams, err := parseWeightArg(msg.CommandArguments())
		if err != nil {
			b.sendMarkdown(msg.Chat.ID, "Usage: `/weight 150` (grams)")
			return
		}
		reply, err := sess.SetWeight(grams)
		if err != nil {
			b.sendMarkdown(msg.Chat.ID, "Usage: `/weight 150` (grams)")
			return
		}
		b.sendMarkdown(msg.Chat.ID, reply.Content)
	case "porsi", "portion":
		on, err := parseToggleArg(msg.CommandArguments())
		if err != nil {
			b.sendMarkdown(msg.Chat.ID, "Usage: `/porsi on` or `/porsi off`")
			return
		}
		b.sendMarkdown(msg.Chat.ID, sess.SetPortionMode(on).Content)
	case "metrics":
		if msg.From.ID != b.cfg.AdminTelegramID {
			b.sendMarkdown(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetricsCommand(msg.Chat.ID)
	default:
		b.sendMarkdown(msg.Chat.ID, "Unknown command. "+helpText)
	}
}

const helpText = "📸 Send me a photo of an Indonesian dish, then ask anything about it.\n\n" +
	"/reset - identify a new dish\n" +
	"/weight <gram> - weight used for nutrition answers\n" +
	"/porsi on|off - use standard portions for prepared dishes"

func parseWeightArg(arg string) (float64, error) {
	// Accepts "150", "150g", "150 gram".
	arg = strings.TrimRightFunc(strings.TrimSpace(arg), unicode.IsLetter)
	grams, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, err
	}
	if grams <= 0 {
		return 0, fmt.Errorf("weight must be positive")
	}
	return grams, nil
}

func parseToggleArg(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "ya", "yes", "true", "1":
		return true, nil
	case "off", "tidak", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid toggle %q", arg)
}

func (b *Bot) handlePhoto(sess *session.Session, chatID int64, fileID string) {
	statusMsg := tgbotapi.NewMessage(chatID, "🔎 *Looking at your photo...*")
	statusMsg.ParseMode = tgbotapi.ModeMarkdown
	sentMsg, err := b.api.Send(statusMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	var finalText string
	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		log.Printf("Error downloading photo: %v", err)
		finalText = "❌ I couldn't download that photo. Please try again."
	} else if reply, err := sess.Upload(ctx, data); err != nil {
		log.Printf("Error classifying photo: %v", err)
		msgs := sess.Messages()
		finalText = msgs[len(msgs)-1].Content
	} else {
		finalText = reply.Content
	}

	edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, finalText)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		// Knowledge base text may not be valid Markdown.
		edit.ParseMode = ""
		b.api.Send(edit)
	}
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram file api error: status=%d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("photo exceeds %d bytes", maxPhotoBytes)
	}
	return data, nil
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		log.Printf("Error fetching metrics: %v", err)
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Error fetching metrics."))
		return
	}
	top, err := b.metricsStore.TopLabels(7, 5)
	if err != nil {
		log.Printf("Error fetching top labels: %v", err)
	}

	health := metrics.GetSysHealth(b.dataDir, b.sessions.Len())
	b.sendMarkdown(chatID, formatMetricsReport(usage, top, health))
}

func formatMetricsReport(usage []metrics.DailyUsage, top []string, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Classifications*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d photos, %d identified (avg %.0f%%, %.0fms)\n",
			d.Date, d.Total, d.Accepted, d.AvgConfidence*100, d.AvgLatencyMS))
	}

	if len(top) > 0 {
		sb.WriteString("\n🍛 *Top Dishes*\n")
		for i, label := range top {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, label))
		}
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Active Sessions: %d\n", health.ActiveSessions))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	return sb.String()
}

// sendMarkdown sends text as Markdown, retrying as plain text when Telegram
// rejects the markup.
func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Markdown send failed, retrying as plain text: %v", err)
		msg.ParseMode = ""
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("Failed to send message to chat %d: %v", chatID, err)
		}
	}
}
