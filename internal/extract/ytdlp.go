package extract

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mediagrab/mediagrab/internal/format"
	"github.com/mediagrab/mediagrab/internal/logctx"
)

// outputTemplate names the produced file after the remote title; the
// engine substitutes the natural extension.
const outputTemplate = "%(title)s.%(ext)s"

var progressRegex = regexp.MustCompile(`\[download\]\s+(\d+\.?\d*)%`)

// authMarkers are the diagnostic fragments the engine emits when the
// target site rejected or demanded authentication.
var authMarkers = []string{
	"login required",
	"login_required",
	"sign in to confirm",
	"requested content is not available, rate-limit reached",
	"use --cookies",
	"account that is not logged in",
}

// YtdlpEngine runs the local yt-dlp binary.
type YtdlpEngine struct {
	binaryPath string
}

func NewYtdlpEngine(binaryPath string) *YtdlpEngine {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}

	return &YtdlpEngine{binaryPath: binaryPath}
}

// Run invokes yt-dlp with the composed job configuration and blocks
// until it finishes. The actual output path is resolved afterwards by
// scanning the job's working directory, because filenames derive from
// the remote title and audio post-processing rewrites the extension.
func (e *YtdlpEngine) Run(ctx context.Context, job Job) (*Result, error) {
	logger := logctx.LoggerFromContext(ctx)

	cmd := exec.CommandContext(ctx, e.binaryPath, buildArgs(job)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open engine stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}

	scanProgress(stdout, job.Progress)

	if err := cmd.Wait(); err != nil {
		return nil, classify(job.URL, stderr.String(), err)
	}

	res, err := resolveOutput(job.OutputDir)
	if err != nil {
		return nil, &EngineError{URL: job.URL, Diagnostic: err.Error(), Err: err}
	}

	logger.Info("extraction finished",
		"title", res.Title,
		"file_size", humanize.Bytes(uint64(res.Size)),
	)

	return res, nil
}

// buildArgs composes the yt-dlp argv for one job.
func buildArgs(job Job) []string {
	args := []string{
		"-f", job.Format.Expr,
		"-o", filepath.Join(job.OutputDir, outputTemplate),
		"--no-playlist",
		"--newline",
	}

	if job.Format.AudioOnly {
		args = append(args,
			"-x",
			"--audio-format", format.AudioCodec,
			"--audio-quality", format.AudioBitrate,
		)
	} else if job.Format.Container != "" {
		args = append(args, "--merge-output-format", job.Format.Container)
	}

	if job.CookiePath != "" {
		args = append(args, "--cookies", job.CookiePath)
	}

	return append(args, job.URL)
}

// scanProgress reads engine output line by line and forwards download
// percentages to the progress callback.
func scanProgress(r io.Reader, progress func(float64)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if progress == nil {
			continue
		}

		if pct, ok := parseProgressLine(scanner.Text()); ok {
			progress(pct)
		}
	}
}

// parseProgressLine extracts the completion percentage from a
// "[download]  42.3% of ..." line.
func parseProgressLine(line string) (float64, bool) {
	m := progressRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}

	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	return pct, true
}

// classify maps a raw engine failure to a typed error by matching the
// diagnostic text against known authentication markers.
func classify(url, diagnostic string, err error) error {
	lower := strings.ToLower(diagnostic)
	for _, marker := range authMarkers {
		if strings.Contains(lower, marker) {
			return &AuthError{URL: url, Err: err}
		}
	}

	return &EngineError{URL: url, Diagnostic: strings.TrimSpace(diagnostic), Err: err}
}

// resolveOutput locates the single media file the engine produced in
// the job's working directory. Credential snapshots and partial
// downloads are skipped.
func resolveOutput(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output dir: %w", err)
	}

	var found fs.DirEntry
	for _, entry := range entries {
		if entry.IsDir() || !isMediaFile(entry.Name()) {
			continue
		}

		found = entry
	}

	if found == nil {
		return nil, fmt.Errorf("engine produced no output file in %s", dir)
	}

	info, err := found.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to stat output file: %w", err)
	}

	name := found.Name()

	return &Result{
		Path:  filepath.Join(dir, name),
		Title: strings.TrimSuffix(name, filepath.Ext(name)),
		Size:  info.Size(),
	}, nil
}

func isMediaFile(name string) bool {
	switch filepath.Ext(name) {
	case ".txt", ".part", ".ytdl", ".tmp", ".json":
		return false
	}

	return filepath.Ext(name) != ""
}
