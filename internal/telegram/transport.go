// Package telegram adapts the Telegram Bot API to the chat transport
// surfaces the core depends on.
package telegram

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mediagrab/mediagrab/internal/bot"
	"github.com/mediagrab/mediagrab/internal/logctx"
)

// Transport wraps the Bot API client. It implements both the
// messenger and the file-delivery surfaces.
type Transport struct {
	api *tgbotapi.BotAPI
}

func NewTransport(token string) (*Transport, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api client: %w", err)
	}

	return &Transport{api: api}, nil
}

// Username returns the bot account's username.
func (t *Transport) Username() string {
	return t.api.Self.UserName
}

func (t *Transport) SendMessage(_ context.Context, chatID int64, text string) error {
	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))

	return err
}

func (t *Transport) EditMessage(_ context.Context, chatID int64, messageID int, text string) error {
	_, err := t.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))

	return err
}

// SendDownloadButton offers the single entry button that leads to the
// quality keyboard.
func (t *Transport) SendDownloadButton(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎬 Download Video", bot.CallbackDownload),
		),
	)

	_, err := t.api.Send(msg)

	return err
}

// SendQualityKeyboard replaces the entry button with the quality
// choices.
func (t *Transport) SendQualityKeyboard(_ context.Context, chatID int64, messageID int) error {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎬 360p Video", "q_360")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎬 720p Video", "q_720")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎬 1080p Video", "q_1080")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎵 Audio (MP3)", "q_audio")),
	)

	_, err := t.api.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, "📥 Choose format:", keyboard))

	return err
}

func (t *Transport) SendVideo(_ context.Context, chatID int64, path string) error {
	_, err := t.api.Send(tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path)))

	return err
}

func (t *Transport) SendAudio(_ context.Context, chatID int64, path string) error {
	_, err := t.api.Send(tgbotapi.NewAudio(chatID, tgbotapi.FilePath(path)))

	return err
}

func (t *Transport) SendDocument(_ context.Context, chatID int64, path string) error {
	_, err := t.api.Send(tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path)))

	return err
}

// Listen long-polls for updates and dispatches each one on its own
// goroutine, so a long extraction never blocks other users' events.
// It returns when the context is cancelled.
func (t *Transport) Listen(ctx context.Context, handler *bot.Handler, pollTimeout time.Duration) {
	logger := logctx.LoggerFromContext(ctx)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(pollTimeout.Seconds())

	updates := t.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			logger.Info("update listener shutting down")

			return
		case update := <-updates:
			go t.dispatch(ctx, handler, update)
		}
	}
}

// dispatch maps one update to the matching core handler. Panics are
// contained per update so a single bad request cannot take the
// process down.
func (t *Transport) dispatch(ctx context.Context, handler *bot.Handler, update tgbotapi.Update) {
	logger := logctx.LoggerFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("update handler panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery

		// The Bot API omits Message for callbacks on inaccessible or
		// aged-out messages; there is nothing to act on then.
		if cq.Message == nil {
			logger.Warn("ignoring callback without message", "data", cq.Data)

			return
		}

		if _, err := t.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			logger.Warn("failed to ack callback", "err", err)
		}

		handler.HandleCallback(ctx, cq.From.ID, cq.Message.Chat.ID, cq.Message.MessageID, cq.Data)
	case update.Message != nil && update.Message.IsCommand():
		t.dispatchCommand(ctx, handler, update.Message)
	case update.Message != nil && update.Message.Text != "":
		handler.HandleLink(ctx, update.Message.From.ID, update.Message.Chat.ID, update.Message.Text)
	}
}

func (t *Transport) dispatchCommand(ctx context.Context, handler *bot.Handler, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		handler.HandleStart(ctx, msg.Chat.ID)
	case "help":
		handler.HandleHelp(ctx, msg.Chat.ID)
	case "about":
		handler.HandleAbout(ctx, msg.Chat.ID)
	case "cookies":
		handler.HandleCookies(ctx, msg.From.ID, msg.Chat.ID, msg.CommandArguments())
	}
}
