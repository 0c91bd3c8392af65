// Package extract is the boundary to the external media extraction
// engine. It composes job configurations, observes progress, and
// classifies raw engine failures into a closed set of typed errors.
package extract

import (
	"context"

	"github.com/mediagrab/mediagrab/internal/format"
)

// Job describes one extraction job. The output directory is owned
// exclusively by this job and must already exist.
type Job struct {
	URL    string
	Format format.Spec

	// CookiePath points to a credential snapshot the engine should
	// authenticate with. Empty means unauthenticated.
	CookiePath string

	// OutputDir is the unique working directory the produced file is
	// materialized into.
	OutputDir string

	// Progress receives advisory completion percentages. It never
	// gates control flow and may be nil.
	Progress func(percent float64)
}

// Result describes a successfully materialized media file.
type Result struct {
	Path  string
	Title string
	Size  int64
}

// Engine fetches and optionally transcodes remote media. On failure
// it returns *AuthError when the site rejected authentication and
// *EngineError for everything else. Failures are terminal; no retry
// is performed.
type Engine interface {
	Run(ctx context.Context, job Job) (*Result, error)
}
