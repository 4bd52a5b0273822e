package telegram

import (
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"pmsync/internal"
	"pmsync/models"
	"pmsync/utility"
)

// JobSource lists the jobs in progress for the /status command.
type JobSource interface {
	Running() []models.SyncJob
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TgBot sends sync job notifications to subscribed chats.
type TgBot struct {
	api    *tgbotapi.BotAPI
	sender sender
	jobs   JobSource
	logger internal.LogHandler

	mu            sync.Mutex
	subscriptions map[int64]string
	event         chan MessageContent
	send          chan MessageContent
}

type MessageContent struct {
	ChatID int64
	Text   string
}

func NewBot(apiKey string) (*TgBot, error) {
	api, err := tgbotapi.NewBotAPI(apiKey)
	if err != nil {
		return nil, err
	}
	tgBot := newBot(api)
	tgBot.api = api
	return tgBot, nil
}

func newBot(s sender) *TgBot {
	return &TgBot{
		sender:        s,
		subscriptions: make(map[int64]string),
		event:         make(chan MessageContent, 100),
		send:          make(chan MessageContent, 100),
	}
}

func (b *TgBot) SetJobSource(jobs JobSource) {
	b.jobs = jobs
}

func (b *TgBot) SetLogger(logger internal.LogHandler) {
	b.logger = logger
}

// Subscribe adds chats that receive notifications without sending /start.
func (b *TgBot) Subscribe(chatIDs ...int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range chatIDs {
		b.subscriptions[id] = "config"
	}
}

func (b *TgBot) Start() {
	go b.sendPump()
	go b.eventPump()
	if b.api != nil {
		go b.updatesPump()
	}
}

func (b *TgBot) updatesPump() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		b.warn(fmt.Sprintf("bot: error getting updates: %v", err))
		return
	}
	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		chatID := update.Message.Chat.ID
		b.send <- MessageContent{ChatID: chatID, Text: b.handleCommand(chatID, update.Message.From.UserName, update.Message.Command())}
	}
}

func (b *TgBot) handleCommand(chatID int64, user, command string) string {
	switch command {
	case "start":
		b.mu.Lock()
		b.subscriptions[chatID] = user
		b.mu.Unlock()
		return fmt.Sprintf("Hello *%s*, you are now subscribed to sync job updates", sanitize(user))
	case "stop":
		b.mu.Lock()
		delete(b.subscriptions, chatID)
		b.mu.Unlock()
		return "Your subscription has been removed"
	case "status":
		return b.composeStatusMessage()
	}
	return "Unknown command"
}

func (b *TgBot) eventPump() {
	for event := range b.event {
		b.mu.Lock()
		chats := make([]int64, 0, len(b.subscriptions))
		for id := range b.subscriptions {
			chats = append(chats, id)
		}
		b.mu.Unlock()
		for _, id := range chats {
			b.sendMessage(id, event.Text)
		}
	}
}

func (b *TgBot) sendPump() {
	for event := range b.send {
		b.sendMessage(event.ChatID, event.Text)
	}
}

func (b *TgBot) sendMessage(id int64, text string) {
	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = "MarkdownV2"
	if _, err := b.sender.Send(msg); err != nil {
		// parse errors are reported back as plain text
		msg = tgbotapi.NewMessage(id, fmt.Sprintf("Error: %v", err))
		if _, err = b.sender.Send(msg); err != nil {
			b.warn(fmt.Sprintf("bot: error sending message: %v", err))
		}
	}
}

func (b *TgBot) warn(text string) {
	if b.logger != nil {
		b.logger.Warn(text)
	}
}

// OnJobUpdate queues a notification for finished jobs.
func (b *TgBot) OnJobUpdate(job models.SyncJob) {
	if job.Status != models.JobCompleted && job.Status != models.JobFailed {
		return
	}
	select {
	case b.event <- MessageContent{Text: composeJobMessage(job)}:
	default:
		b.warn("bot: event queue full, dropping job notification")
	}
}

func composeJobMessage(job models.SyncJob) string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "*%s*: %s `%s`\n", sanitize(job.OrgID), job.Kind, job.Status)
	if job.Error != "" {
		fmt.Fprintf(&msg, "Error: %s\n", sanitize(job.Error))
	}
	messages := 0
	for _, result := range job.Result {
		messages += len(result.Messages)
	}
	fmt.Fprintf(&msg, "Buildings: %d, messages: %d\n", len(job.Result), messages)
	return msg.String()
}

func (b *TgBot) composeStatusMessage() string {
	var msg strings.Builder
	msg.WriteString("Status info:\n\n")
	if b.jobs != nil {
		running := b.jobs.Running()
		if len(running) == 0 {
			msg.WriteString("No jobs running\n")
		}
		for _, job := range running {
			fmt.Fprintf(&msg, "*%s*: %s started %s\n", sanitize(job.OrgID), job.Kind, sanitize(utility.TimeAgo(job.StartedAt)))
		}
		msg.WriteString("\n")
	}
	b.mu.Lock()
	fmt.Fprintf(&msg, "Active subscriptions: %d", len(b.subscriptions))
	b.mu.Unlock()
	return msg.String()
}

// sanitize escapes the characters MarkdownV2 reserves.
func sanitize(input string) string {
	const reserved = "\\`*_{}[]()#+-.!|>~=<"
	var sanitized strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reserved, char) {
			sanitized.WriteRune('\\')
		}
		sanitized.WriteRune(char)
	}
	return sanitized.String()
}
