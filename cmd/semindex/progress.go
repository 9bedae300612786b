package main

import (
	"os"
	"sync"

	"github.com/poiesic/semindex/indexer"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// barProgress renders embedding progress as a terminal progress bar.
type barProgress struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

var _ indexer.Progress = (*barProgress)(nil)

// newProgress returns a progress bar on terminals and a line-based tracker
// otherwise.
func newProgress(reportInterval int) indexer.Progress {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return &barProgress{}
	}
	return indexer.NewProgressTracker(os.Stderr, reportInterval)
}

func (p *barProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if total <= 0 {
		p.bar = nil
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("embedding"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *barProgress) Update(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	_ = p.bar.Set(done)
}

func (p *barProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}
