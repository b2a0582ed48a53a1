// Package notification publishes rendered charts and trade summaries.
package notification

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/raykavin/tradechart/pkg/core"
)

var ErrNoChats = errors.New("no telegram chat configured")

// Sender is the part of *tb.Bot used to publish.
type Sender interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
}

// Telegram posts charts and messages to a set of chats.
type Telegram struct {
	client Sender
	chats  []int64
}

// Option is a function that configures a Telegram instance
type Option func(telegram *Telegram)

// WithSender replaces the bot client.
func WithSender(sender Sender) Option {
	return func(telegram *Telegram) {
		telegram.client = sender
	}
}

// NewTelegram connects a bot with token. Messages go to every chat in chats.
func NewTelegram(token string, chats []int64, options ...Option) (*Telegram, error) {
	if len(chats) == 0 {
		return nil, ErrNoChats
	}

	telegram := &Telegram{chats: chats}
	for _, option := range options {
		option(telegram)
	}

	if telegram.client == nil {
		client, err := tb.NewBot(tb.Settings{
			ParseMode: tb.ModeMarkdown,
			Token:     token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot: %w", err)
		}
		telegram.client = client
	}

	return telegram, nil
}

// SendChart posts a PNG image with caption to every chat. It stops at the
// first chat that fails.
func (t *Telegram) SendChart(png io.Reader, caption string) error {
	content, err := io.ReadAll(png)
	if err != nil {
		return fmt.Errorf("failed to read chart: %w", err)
	}

	for _, chat := range t.chats {
		photo := &tb.Photo{
			File:    tb.FromReader(bytes.NewReader(content)),
			Caption: caption,
		}
		if _, err := t.client.Send(&tb.Chat{ID: chat}, photo); err != nil {
			return fmt.Errorf("failed to send chart to %d: %w", chat, err)
		}
	}

	log.WithField("chats", len(t.chats)).Info("[TELEGRAM]: chart sent")
	return nil
}

// Notify sends text to every chat, logging failures.
func (t *Telegram) Notify(text string) {
	for _, chat := range t.chats {
		if _, err := t.client.Send(&tb.Chat{ID: chat}, text); err != nil {
			log.WithError(err).Error("failed to send notification")
		}
	}
}

// OnTrade sends a summary of a closed trade.
func (t *Telegram) OnTrade(trade core.TradeInfo) {
	t.Notify(TradeSummary(trade))
}

// OnError sends an error notification
func (t *Telegram) OnError(err error) {
	t.Notify(fmt.Sprintf("🛑 ERROR\n`%s`", err))
}

// TradeSummary formats a trade as a Markdown message.
func TradeSummary(trade core.TradeInfo) string {
	icon := "⚪"
	switch trade.ExitReason {
	case core.ExitTakeProfit:
		icon = "✅"
	case core.ExitStopLoss:
		icon = "❌"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *%s* trade #%d\n", icon, trade.Pair, trade.ID)
	fmt.Fprintf(&sb, "Entry: `%s` at `%g`\n", trade.Entry.Format("2006-01-02 15:04"), trade.EntryPrice)
	fmt.Fprintf(&sb, "Exit: `%s` at `%g`\n", trade.Exit.Format("2006-01-02 15:04"), trade.ExitPrice)
	fmt.Fprintf(&sb, "SL `%g` / TP `%g`", trade.StopLoss, trade.TakeProfit)
	if trade.ExitReason != "" {
		fmt.Fprintf(&sb, "\nReason: `%s`", trade.ExitReason)
	}
	return sb.String()
}
