package config

import (
	"time"

	"github.com/danmuck/memlogctl/internal/callflow"
)

// WebSeq converts the render section for the call flow renderer. An
// unparsable timeout falls back to the renderer default.
func (r RenderConfig) WebSeq() callflow.WebSeqConfig {
	timeout, err := time.ParseDuration(r.Timeout)
	if err != nil {
		timeout = 0
	}
	return callflow.WebSeqConfig{
		Endpoint: r.Endpoint,
		Style:    r.Style,
		Format:   r.Format,
		Timeout:  timeout,
	}
}
