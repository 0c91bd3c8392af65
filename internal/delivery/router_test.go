package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediagrab/mediagrab/internal/extract"
)

type fakeTransport struct {
	sent    []Channel
	lastErr error
}

func (f *fakeTransport) SendVideo(_ context.Context, _ int64, _ string) error {
	f.sent = append(f.sent, ChannelVideo)

	return f.lastErr
}

func (f *fakeTransport) SendAudio(_ context.Context, _ int64, _ string) error {
	f.sent = append(f.sent, ChannelAudio)

	return f.lastErr
}

func (f *fakeTransport) SendDocument(_ context.Context, _ int64, _ string) error {
	f.sent = append(f.sent, ChannelDocument)

	return f.lastErr
}

func TestDeliver_Routing(t *testing.T) {
	tests := []struct {
		name      string
		size      int64
		audioOnly bool
		want      Channel
	}{
		{name: "audio always uses audio channel", size: 1, audioOnly: true, want: ChannelAudio},
		{name: "large audio still uses audio channel", size: VideoSizeLimit * 2, audioOnly: true, want: ChannelAudio},
		{name: "small video is sent inline", size: 50 * 1024 * 1024, want: ChannelVideo},
		{name: "one byte under the limit is sent inline", size: VideoSizeLimit - 1, want: ChannelVideo},
		{name: "exactly at the limit falls back to document", size: VideoSizeLimit, want: ChannelDocument},
		{name: "above the limit falls back to document", size: VideoSizeLimit + 1, want: ChannelDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &fakeTransport{}
			router := NewRouter(transport)

			res := &extract.Result{Path: "/tmp/x", Title: "x", Size: tt.size}
			err := router.Deliver(context.Background(), 42, res, tt.audioOnly)

			require.NoError(t, err)
			assert.Equal(t, []Channel{tt.want}, transport.sent)
		})
	}
}

func TestDeliver_WrapsTransportRejection(t *testing.T) {
	rejection := errors.New("Request Entity Too Large")
	transport := &fakeTransport{lastErr: rejection}
	router := NewRouter(transport)

	res := &extract.Result{Path: "/tmp/x", Title: "x", Size: 1}
	err := router.Deliver(context.Background(), 42, res, false)

	var dErr *Error
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, ChannelVideo, dErr.Channel)
	assert.ErrorIs(t, err, rejection)
}
