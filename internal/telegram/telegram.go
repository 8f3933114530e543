// Package telegram adapts the Telegram Bot API to the bot package's
// Messenger and event model.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/brk3/habitbot/internal/bot"
	"github.com/brk3/habitbot/internal/logger"
)

// botAPI is the subset of *tgbotapi.BotAPI the client uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Client struct {
	api botAPI
}

func New(token string, debug bool) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	api.Debug = debug
	logger.Info("Authorized on Telegram", "account", api.Self.UserName)
	return &Client{api: api}, nil
}

func (c *Client) Send(_ context.Context, chatID int64, text string, kb *bot.Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup := replyMarkup(kb); markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

func (c *Client) Edit(_ context.Context, chatID int64, messageID int, text string, kb *bot.Keyboard) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if kb != nil && len(kb.Inline) > 0 {
		markup := inlineMarkup(kb.Inline)
		edit.ReplyMarkup = &markup
	}
	if _, err := c.api.Request(edit); err != nil {
		return fmt.Errorf("telegram: edit message: %w", err)
	}
	return nil
}

func (c *Client) EditKeyboard(_ context.Context, chatID int64, messageID int, kb *bot.Keyboard) error {
	// an empty inline_keyboard removes the buttons
	markup := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	if kb != nil && len(kb.Inline) > 0 {
		markup = inlineMarkup(kb.Inline)
	}
	if _, err := c.api.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup)); err != nil {
		return fmt.Errorf("telegram: edit keyboard: %w", err)
	}
	return nil
}

func (c *Client) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("telegram: answer callback: %w", err)
	}
	return nil
}

// Run long-polls for updates and hands them to handle one at a time until
// ctx is cancelled. Pending updates from before startup are dropped.
func (c *Client) Run(ctx context.Context, pollTimeout int, handle func(context.Context, bot.Event)) error {
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("telegram: delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := c.api.GetUpdatesChan(u)
	logger.Info("Polling for updates", "timeout", pollTimeout)

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			ev, ok := toEvent(upd)
			if !ok {
				logger.Debug("Ignoring update", "update_id", upd.UpdateID)
				continue
			}
			handle(ctx, ev)
		}
	}
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.Send(ctx, chatID, text, nil)
}

func toEvent(upd tgbotapi.Update) (bot.Event, bool) {
	switch {
	case upd.CallbackQuery != nil:
		q := upd.CallbackQuery
		if q.Message == nil || q.Message.Chat == nil {
			return bot.Event{}, false
		}
		ev := bot.Event{
			ChatID:       q.Message.Chat.ID,
			MessageID:    q.Message.MessageID,
			CallbackID:   q.ID,
			CallbackData: q.Data,
		}
		if q.From != nil {
			ev.Username = q.From.UserName
		}
		return ev, true

	case upd.Message != nil && upd.Message.Chat != nil && upd.Message.Text != "":
		m := upd.Message
		ev := bot.Event{ChatID: m.Chat.ID, MessageID: m.MessageID, Text: m.Text}
		if m.From != nil {
			ev.Username = m.From.UserName
		}
		return ev, true
	}
	return bot.Event{}, false
}

func replyMarkup(kb *bot.Keyboard) any {
	switch {
	case kb == nil:
		return nil
	case len(kb.Inline) > 0:
		return inlineMarkup(kb.Inline)
	case len(kb.Reply) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Reply))
		for _, r := range kb.Reply {
			row := make([]tgbotapi.KeyboardButton, 0, len(r))
			for _, label := range r {
				row = append(row, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, row)
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.ResizeKeyboard = true
		return markup
	case kb.Remove:
		return tgbotapi.NewRemoveKeyboard(true)
	}
	return nil
}

func inlineMarkup(rows [][]bot.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, r := range rows {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		out = append(out, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}
