package pipeline

import "errors"

// ErrNoAnalyses is returned when every transcript in a run failed
// individual analysis, leaving nothing to synthesize.
var ErrNoAnalyses = errors.New("pipeline: no successful analyses")
