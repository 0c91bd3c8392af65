// Package bot orchestrates one download request from quality
// selection through extraction, delivery, and cleanup.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/mediagrab/mediagrab/internal/creds"
	"github.com/mediagrab/mediagrab/internal/delivery"
	"github.com/mediagrab/mediagrab/internal/extract"
	"github.com/mediagrab/mediagrab/internal/format"
	"github.com/mediagrab/mediagrab/internal/janitor"
	"github.com/mediagrab/mediagrab/internal/logctx"
	"github.com/mediagrab/mediagrab/internal/notifier"
	"github.com/mediagrab/mediagrab/internal/session"
	"github.com/mediagrab/mediagrab/internal/telemetry"
)

// Callback tokens carried by the inline keyboard buttons.
const (
	CallbackDownload      = "download"
	callbackQualityPrefix = "q_"
)

const dirPerm = 0755

// Messenger is the chat transport's message and keyboard surface.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
	SendDownloadButton(ctx context.Context, chatID int64, text string) error
	SendQualityKeyboard(ctx context.Context, chatID int64, messageID int) error
}

// Handler reacts to the three inbound chat event kinds: a link
// message, a button press, and the credential override command.
type Handler struct {
	sessions  *session.Store
	resolver  *creds.Resolver
	engine    extract.Engine
	router    *delivery.Router
	messenger Messenger
	notif     notifier.Notifier
	tel       *telemetry.Telemetry

	workDir    string
	jobTimeout time.Duration
	slots      *semaphore.Weighted
}

func NewHandler(
	sessions *session.Store,
	resolver *creds.Resolver,
	engine extract.Engine,
	router *delivery.Router,
	messenger Messenger,
	notif notifier.Notifier,
	tel *telemetry.Telemetry,
	workDir string,
	jobTimeout time.Duration,
	maxParallel int,
) *Handler {
	return &Handler{
		sessions:   sessions,
		resolver:   resolver,
		engine:     engine,
		router:     router,
		messenger:  messenger,
		notif:      notif,
		tel:        tel,
		workDir:    workDir,
		jobTimeout: jobTimeout,
		slots:      semaphore.NewWeighted(int64(maxParallel)),
	}
}

// HandleStart replies to the /start command.
func (h *Handler) HandleStart(ctx context.Context, chatID int64) {
	h.reply(ctx, chatID,
		"👋 Send me a YouTube or Instagram video link and I'll help you download it!\n\n"+
			"⚡ For Instagram, store your cookies with /cookies first.")
}

// HandleHelp replies to the /help command.
func (h *Handler) HandleHelp(ctx context.Context, chatID int64) {
	h.reply(ctx, chatID,
		"📖 How to use this bot:\n\n"+
			"1. Send me a YouTube or Instagram link.\n"+
			"2. Press Download Video.\n"+
			"3. Pick a quality and receive the file.\n\n"+
			"⚡ For Instagram, store your cookies first: /cookies <exported cookie text>")
}

// HandleAbout replies to the /about command.
func (h *Handler) HandleAbout(ctx context.Context, chatID int64) {
	h.reply(ctx, chatID,
		"🤖 I download YouTube and Instagram videos and audio.\n"+
			"📦 Powered by yt-dlp + ffmpeg.")
}

// HandleLink records the submitted URL for this user and offers the
// download button.
func (h *Handler) HandleLink(ctx context.Context, userID, chatID int64, text string) {
	text = strings.TrimSpace(text)

	u, err := url.Parse(text)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		h.reply(ctx, chatID, "⚠️ That doesn't look like a link. Send me a YouTube or Instagram URL.")

		return
	}

	h.sessions.SetURL(userID, text)

	if err := h.messenger.SendDownloadButton(ctx, chatID, "Here is your video -"); err != nil {
		logctx.LoggerFromContext(ctx).Error("failed to send download button", "err", err)
	}
}

// HandleCookies stores the raw credential material as this user's
// override, replacing any previous one.
func (h *Handler) HandleCookies(ctx context.Context, userID, chatID int64, material string) {
	if strings.TrimSpace(material) == "" {
		h.reply(ctx, chatID, "📁 Usage: /cookies <exported cookie text>")

		return
	}

	// Stored verbatim: cookie exports are whitespace-sensitive and the
	// engine consumes the snapshot byte for byte.
	h.sessions.SetCookies(userID, material)
	h.reply(ctx, chatID, "✅ Cookies saved. You can now download Instagram videos.")
}

// HandleCallback dispatches a button press by its selection token.
func (h *Handler) HandleCallback(ctx context.Context, userID, chatID int64, messageID int, data string) {
	switch {
	case data == CallbackDownload:
		if err := h.messenger.SendQualityKeyboard(ctx, chatID, messageID); err != nil {
			logctx.LoggerFromContext(ctx).Error("failed to send quality keyboard", "err", err)
		}
	case strings.HasPrefix(data, callbackQualityPrefix):
		choice := format.Quality(strings.TrimPrefix(data, callbackQualityPrefix))
		h.handleQuality(ctx, userID, chatID, messageID, choice)
	}
}

// handleQuality runs the full pipeline for one confirmed quality
// choice: select format, resolve credentials, extract, deliver. The
// janitor guard removes the job's working directory on every exit
// path, including panics unwinding through the deferred release.
func (h *Handler) handleQuality(ctx context.Context, userID, chatID int64, messageID int, choice format.Quality) {
	logger := logctx.LoggerFromContext(ctx)

	srcURL, ok := h.sessions.URL(userID)
	if !ok {
		h.edit(ctx, chatID, messageID, "⚠️ No URL found. Please send the link again.")

		return
	}

	spec := format.Select(choice)

	jobDir := filepath.Join(h.workDir, uuid.NewString())
	if err := os.MkdirAll(jobDir, dirPerm); err != nil {
		logger.Error("failed to create job dir", "dir", jobDir, "err", err)
		h.edit(ctx, chatID, messageID, "❌ Error: could not prepare working storage.")

		return
	}

	guard := janitor.NewGuard(jobDir)
	defer guard.Release(ctx)

	job := extract.Job{
		URL:       srcURL,
		Format:    spec,
		OutputDir: jobDir,
		Progress: func(pct float64) {
			logger.Debug("download progress", "percent", pct)
		},
	}

	if creds.RequiresAuth(srcURL) {
		art, err := h.resolver.Resolve(ctx, h.sessions.State(userID).CookieOverride, jobDir)
		if err != nil {
			logger.Error("failed to resolve credentials", "err", err)
			h.edit(ctx, chatID, messageID, "❌ Error: could not prepare credentials.")

			return
		}

		if art != nil {
			job.CookiePath = art.Path
		}
	}

	h.edit(ctx, chatID, messageID, fmt.Sprintf("📥 Downloading %s...", choice))

	res, err := h.runJob(ctx, job)
	if err != nil {
		h.reportFailure(ctx, chatID, srcURL, err)

		return
	}

	if err := h.router.Deliver(ctx, chatID, res, spec.AudioOnly); err != nil {
		logger.Error("delivery failed", "err", err)
		h.recordDelivery(res, spec.AudioOnly, "error")
		h.reply(ctx, chatID, "❌ Error: the file could not be sent. It may exceed the transport's limits.")

		return
	}

	h.recordDelivery(res, spec.AudioOnly, "success")

	if spec.AudioOnly {
		h.edit(ctx, chatID, messageID, "✅ Audio sent successfully!")
	} else {
		h.edit(ctx, chatID, messageID, "✅ Video sent successfully!")
	}
}

// runJob offloads the blocking engine invocation to a bounded worker
// slot so unrelated users' events keep being serviced.
func (h *Handler) runJob(ctx context.Context, job extract.Job) (*extract.Result, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire job slot: %w", err)
	}
	defer h.slots.Release(1)

	jobCtx, cancel := context.WithTimeout(ctx, h.jobTimeout)
	defer cancel()

	var res *extract.Result

	err := h.tel.InstrumentJob(jobCtx, jobStatus, func(ctx context.Context) error {
		var runErr error
		res, runErr = h.engine.Run(ctx, job)

		return runErr
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// reportFailure converts a typed job failure into user-facing text.
// AuthExpired is the one kind that changes behavior: it steers the
// user toward refreshing their credentials.
func (h *Handler) reportFailure(ctx context.Context, chatID int64, srcURL string, err error) {
	logger := logctx.LoggerFromContext(ctx)
	logger.Error("extraction job failed", "err", err)

	var authErr *extract.AuthError

	switch {
	case errors.As(err, &authErr):
		h.reply(ctx, chatID,
			"🔐 The site rejected authentication. Your cookies may have expired.\n"+
				"Refresh them with /cookies <exported cookie text> and try again.")
	default:
		h.reply(ctx, chatID, fmt.Sprintf("❌ Error: %v", err))
	}

	if h.notif != nil {
		if notifyErr := h.notif.Notify("❌ Download failed for: " + srcURL); notifyErr != nil {
			logger.Error("failed to send notification", "err", notifyErr)
		}
	}
}

func (h *Handler) recordDelivery(res *extract.Result, audioOnly bool, status string) {
	channel := delivery.ChannelVideo
	if audioOnly {
		channel = delivery.ChannelAudio
	} else if res.Size >= delivery.VideoSizeLimit {
		channel = delivery.ChannelDocument
	}

	h.tel.RecordDelivery(string(channel), status, res.Size)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.messenger.SendMessage(ctx, chatID, text); err != nil {
		logctx.LoggerFromContext(ctx).Error("failed to send message", "err", err)
	}
}

func (h *Handler) edit(ctx context.Context, chatID int64, messageID int, text string) {
	if err := h.messenger.EditMessage(ctx, chatID, messageID, text); err != nil {
		logctx.LoggerFromContext(ctx).Error("failed to edit message", "err", err)
	}
}

// jobStatus maps a job error to a bounded telemetry label.
func jobStatus(err error) string {
	if err == nil {
		return "success"
	}

	var authErr *extract.AuthError
	if errors.As(err, &authErr) {
		return "auth_expired"
	}

	return "error"
}
