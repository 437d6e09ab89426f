package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/fitness360/notification-svc/pkg/logger/types"
	"go.uber.org/zap/zapcore"
	tele "gopkg.in/telebot.v3"
)

const (
	queueSize     = 64
	failurePrefix = "failed to send log to channel"
)

type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// LogForwarder forwards log entries at or above a level to a Telegram chat.
// Entries are queued and sent from Run so logging never waits on the Bot API.
type LogForwarder struct {
	bot    sender
	chat   tele.Recipient
	level  zapcore.Level
	queue  chan types.Log
	logger *types.Logger
}

// NewBot builds a telebot client that only sends messages, no polling.
func NewBot(token string) (*tele.Bot, error) {
	return tele.NewBot(tele.Settings{Token: token, Offline: true})
}

func NewLogForwarder(bot sender, channelID int64, level zapcore.Level, logger *types.Logger) *LogForwarder {
	return &LogForwarder{
		bot:    bot,
		chat:   tele.ChatID(channelID),
		level:  level,
		queue:  make(chan types.Log, queueSize),
		logger: logger,
	}
}

// Hook is registered with logger.SetLogHook. Entries are dropped when the queue is full.
func (f *LogForwarder) Hook() types.LogHook {
	return func(log types.Log) {
		if log.Level < f.level || strings.HasPrefix(log.Message, failurePrefix) {
			return
		}
		select {
		case f.queue <- log:
		default:
		}
	}
}

func (f *LogForwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case log := <-f.queue:
			if _, err := f.bot.Send(f.chat, Format(log), tele.ModeHTML); err != nil {
				f.logger.Errorf("%s %s: %v", failurePrefix, f.chat.Recipient(), err)
			}
		}
	}
}

// Format renders an entry as an HTML Telegram message.
func Format(log types.Log) string {
	return fmt.Sprintf("<b>%s</b> %s\n<code>%s</code> %s\n\n%s",
		log.Level.CapitalString(),
		log.Timestamp.Format("2006-01-02 15:04:05"),
		html.EscapeString(log.LoggerName),
		html.EscapeString(log.Caller),
		html.EscapeString(log.Message),
	)
}
