// Package format maps user-facing quality choices to concrete
// extraction format specifications.
package format

// Quality is a user-facing quality choice.
type Quality string

const (
	Quality360   Quality = "360"
	Quality720   Quality = "720"
	Quality1080  Quality = "1080"
	QualityAudio Quality = "audio"
)

const (
	// VideoContainer is the single container every video download is
	// normalized to on output.
	VideoContainer = "mp4"

	// AudioCodec and AudioBitrate describe the post-processing target
	// for audio-only downloads.
	AudioCodec   = "mp3"
	AudioBitrate = "192K"
)

// Spec is a concrete extraction format specification.
type Spec struct {
	// Expr is the stream selector expression handed to the engine.
	Expr string
	// Container is the output container hint, empty for audio-only.
	Container string
	// AudioOnly marks specs that select an audio stream with no video
	// component and are transcoded after download.
	AudioOnly bool
}

var specs = map[Quality]Spec{
	Quality360:   {Expr: "bestvideo[height<=360]+bestaudio/best", Container: VideoContainer},
	Quality720:   {Expr: "bestvideo[height<=720]+bestaudio/best", Container: VideoContainer},
	Quality1080:  {Expr: "bestvideo[height<=1080]+bestaudio/best", Container: VideoContainer},
	QualityAudio: {Expr: "bestaudio/best", AudioOnly: true},
}

// Select returns the Spec for the given quality choice. Unrecognized
// choices fall back to the generic best-available selector instead of
// failing.
func Select(q Quality) Spec {
	if spec, ok := specs[q]; ok {
		return spec
	}

	return Spec{Expr: "best", Container: VideoContainer}
}
