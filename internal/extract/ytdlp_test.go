package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediagrab/mediagrab/internal/format"
)

func TestBuildArgs_Video(t *testing.T) {
	job := Job{
		URL:       "https://youtube.com/watch?v=X",
		Format:    format.Select(format.Quality720),
		OutputDir: "/tmp/job",
	}

	args := buildArgs(job)
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-f bestvideo[height<=720]+bestaudio/best")
	assert.Contains(t, joined, "--no-playlist")
	assert.Contains(t, joined, "--merge-output-format mp4")
	assert.NotContains(t, joined, "--cookies")
	assert.NotContains(t, joined, "-x")
	assert.Equal(t, "https://youtube.com/watch?v=X", args[len(args)-1], "URL must be the last argument")
}

func TestBuildArgs_AudioAddsPostProcessing(t *testing.T) {
	job := Job{
		URL:       "https://youtube.com/watch?v=X",
		Format:    format.Select(format.QualityAudio),
		OutputDir: "/tmp/job",
	}

	joined := strings.Join(buildArgs(job), " ")

	assert.Contains(t, joined, "-x")
	assert.Contains(t, joined, "--audio-format mp3")
	assert.Contains(t, joined, "--audio-quality 192K")
	assert.NotContains(t, joined, "--merge-output-format")
}

func TestBuildArgs_AttachesCookies(t *testing.T) {
	job := Job{
		URL:        "https://instagram.com/reel/abc",
		Format:     format.Select(format.Quality360),
		CookiePath: "/tmp/job/cookies.txt",
		OutputDir:  "/tmp/job",
	}

	joined := strings.Join(buildArgs(job), " ")
	assert.Contains(t, joined, "--cookies /tmp/job/cookies.txt")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		diagnostic string
		wantAuth   bool
	}{
		{
			name:       "instagram login required",
			diagnostic: "ERROR: [Instagram] abc: You need to log in to access this content. Login required",
			wantAuth:   true,
		},
		{
			name:       "youtube bot check",
			diagnostic: "ERROR: Sign in to confirm you're not a bot",
			wantAuth:   true,
		},
		{
			name:       "rate limit hint",
			diagnostic: "ERROR: requested content is not available, rate-limit reached or login required",
			wantAuth:   true,
		},
		{
			name:       "generic failure",
			diagnostic: "ERROR: Unsupported URL: https://example.com",
			wantAuth:   false,
		},
		{
			name:       "empty diagnostic",
			diagnostic: "",
			wantAuth:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("https://x", tt.diagnostic, assert.AnError)

			if tt.wantAuth {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
			} else {
				var engineErr *EngineError
				require.ErrorAs(t, err, &engineErr)
				assert.Equal(t, strings.TrimSpace(tt.diagnostic), engineErr.Diagnostic)
			}
		})
	}
}

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    float64
		wantHit bool
	}{
		{
			name:    "mid download",
			line:    "[download]  42.3% of ~50.00MiB at 2.50MiB/s ETA 00:12",
			want:    42.3,
			wantHit: true,
		},
		{
			name:    "complete",
			line:    "[download] 100% of 50.00MiB in 00:20",
			want:    100,
			wantHit: true,
		},
		{
			name:    "destination line",
			line:    "[download] Destination: downloads/abc/video.mp4",
			wantHit: false,
		},
		{
			name:    "unrelated line",
			line:    "[ExtractAudio] Destination: downloads/abc/video.mp3",
			wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseProgressLine(tt.line)
			assert.Equal(t, tt.wantHit, ok)
			if tt.wantHit {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestScanProgress_ForwardsPercentages(t *testing.T) {
	out := strings.NewReader(strings.Join([]string{
		"[youtube] X: Downloading webpage",
		"[download] Destination: downloads/abc/My Video.mp4",
		"[download]  10.0% of 50.00MiB at 2.50MiB/s ETA 00:18",
		"[download]  55.5% of 50.00MiB at 2.50MiB/s ETA 00:09",
		"[download] 100% of 50.00MiB in 00:20",
	}, "\n"))

	var seen []float64
	scanProgress(out, func(pct float64) { seen = append(seen, pct) })

	assert.Equal(t, []float64{10, 55.5, 100}, seen)
}

func TestResolveOutput(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cookies.txt"), []byte("c"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "My Video.mp3"), []byte("audio-bytes"), 0644))

	res, err := resolveOutput(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "My Video.mp3"), res.Path)
	assert.Equal(t, "My Video", res.Title)
	assert.Equal(t, int64(len("audio-bytes")), res.Size)
}

func TestResolveOutput_SkipsPartialFiles(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "My Video.mp4.part"), []byte("partial"), 0644))

	_, err := resolveOutput(dir)
	assert.Error(t, err, "a partial download is not a produced file")
}

func TestResolveOutput_EmptyDir(t *testing.T) {
	_, err := resolveOutput(t.TempDir())
	assert.Error(t, err)
}
