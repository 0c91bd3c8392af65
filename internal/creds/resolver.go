// Package creds resolves per-user authentication material for sites
// that require it.
package creds

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mediagrab/mediagrab/internal/logctx"
)

const (
	snapshotName = "cookies.txt"
	snapshotPerm = 0600
)

// Source identifies where resolved credential material came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceFallback Source = "fallback"
)

// Artifact is a credential snapshot materialized for a single job.
// The snapshot file lives inside the job's working directory and is
// removed together with it; it is never reused across jobs.
type Artifact struct {
	Source   Source
	Material string
	Path     string
}

// Resolver produces credential artifacts at request time. The
// fallback is process-wide material configured out-of-band.
type Resolver struct {
	fallback string
}

func NewResolver(fallback string) *Resolver {
	return &Resolver{fallback: fallback}
}

// Resolve picks credential material for one job and snapshots it into
// the job's working directory. A manually stored override wins over
// the process-wide fallback. When neither yields material it returns
// nil and the job proceeds unauthenticated.
//
// Material is never validated here; an expired cookie only surfaces
// when the engine attempts authenticated access.
func (r *Resolver) Resolve(ctx context.Context, override, jobDir string) (*Artifact, error) {
	art := &Artifact{}

	switch {
	case override != "":
		art.Source = SourceOverride
		art.Material = override
	case r.fallback != "":
		art.Source = SourceFallback
		art.Material = r.fallback
	default:
		return nil, nil
	}

	art.Path = filepath.Join(jobDir, snapshotName)
	if err := os.WriteFile(art.Path, []byte(art.Material), snapshotPerm); err != nil {
		return nil, fmt.Errorf("failed to snapshot credentials: %w", err)
	}

	logctx.LoggerFromContext(ctx).Debug("resolved credentials", "source", art.Source)

	return art, nil
}

// RequiresAuth reports whether the URL targets a site that needs
// authentication material (Instagram).
func RequiresAuth(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())

	return host == "instagram.com" || strings.HasSuffix(host, ".instagram.com")
}
