package extract

import "fmt"

// AuthError represents an authentication rejection by the target
// site. It is distinguished from generic failures because it prompts
// the user toward refreshing their credentials.
type AuthError struct {
	URL string // URL whose extraction required authentication
	Err error  // Underlying error, if any
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication required for %s", e.URL)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// EngineError represents any other extraction engine failure. It
// carries the engine's diagnostic text verbatim.
type EngineError struct {
	URL        string // URL whose extraction failed
	Diagnostic string // Diagnostic output from the engine
	Err        error  // Underlying error, if any
}

func (e *EngineError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("extraction failed for %s: %s", e.URL, e.Diagnostic)
	}

	return fmt.Sprintf("extraction failed for %s", e.URL)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
