// Package delivery routes a materialized media file to the
// transport-appropriate send channel.
package delivery

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/mediagrab/mediagrab/internal/extract"
	"github.com/mediagrab/mediagrab/internal/logctx"
)

// VideoSizeLimit is the hard boundary between the video-native
// channel (inline playback) and the generic file channel. Files at or
// above it are sent as documents.
const VideoSizeLimit = 200 * 1024 * 1024

// Channel names the transport send primitive used for a delivery.
type Channel string

const (
	ChannelVideo    Channel = "video"
	ChannelAudio    Channel = "audio"
	ChannelDocument Channel = "document"
)

// Transport is the chat transport's file-send surface. It reads files
// from local storage; delivery is decoupled from extraction by the
// materialized file.
type Transport interface {
	SendVideo(ctx context.Context, chatID int64, path string) error
	SendAudio(ctx context.Context, chatID int64, path string) error
	SendDocument(ctx context.Context, chatID int64, path string) error
}

// Error represents a transport rejection of the payload, e.g. a size
// limit.
type Error struct {
	Channel Channel // Channel the delivery was attempted on
	Err     error   // Underlying transport error
}

func (e *Error) Error() string {
	return fmt.Sprintf("delivery failed on %s channel: %v", e.Channel, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Router chooses a delivery channel based on the produced artifact.
type Router struct {
	transport Transport
}

func NewRouter(transport Transport) *Router {
	return &Router{transport: transport}
}

// Deliver hands the extraction result to the user. Audio always goes
// through the audio channel; video goes through the video-native
// channel below VideoSizeLimit and falls back to the generic file
// channel at or above it.
func (r *Router) Deliver(ctx context.Context, chatID int64, res *extract.Result, audioOnly bool) error {
	channel := route(res, audioOnly)

	logctx.LoggerFromContext(ctx).Info("delivering file",
		"channel", channel,
		"file_size", humanize.Bytes(uint64(res.Size)),
	)

	var err error

	switch channel {
	case ChannelAudio:
		err = r.transport.SendAudio(ctx, chatID, res.Path)
	case ChannelVideo:
		err = r.transport.SendVideo(ctx, chatID, res.Path)
	case ChannelDocument:
		err = r.transport.SendDocument(ctx, chatID, res.Path)
	}

	if err != nil {
		return &Error{Channel: channel, Err: err}
	}

	return nil
}

func route(res *extract.Result, audioOnly bool) Channel {
	if audioOnly {
		return ChannelAudio
	}

	if res.Size < VideoSizeLimit {
		return ChannelVideo
	}

	return ChannelDocument
}
