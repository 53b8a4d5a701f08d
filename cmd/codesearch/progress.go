package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/codesearch/hybrid-search/internal/indexer"
)

// watchProgress drains bus until it closes, rendering a progress bar for
// the indexing phase and a line per phase transition otherwise. It
// returns once the bus is closed by the indexer's caller.
func watchProgress(bus *indexer.Bus, quiet bool) <-chan struct{} {
	done := make(chan struct{})
	events := bus.Subscribe()

	go func() {
		defer close(done)
		var bar *progressbar.ProgressBar
		for ev := range events {
			if quiet {
				continue
			}
			switch ev.Phase {
			case indexer.PhaseScanning:
				fmt.Println("Scanning files...")
			case indexer.PhaseIndexing:
				if bar == nil && ev.Total > 0 {
					bar = progressbar.NewOptions(ev.Total,
						progressbar.OptionSetDescription("Indexing"),
						progressbar.OptionSetWidth(40),
						progressbar.OptionShowCount(),
						progressbar.OptionThrottle(65*time.Millisecond),
						progressbar.OptionShowElapsedTimeOnFinish(),
						progressbar.OptionOnCompletion(func() { fmt.Println() }),
					)
				}
				if bar != nil {
					bar.Set(ev.Current)
				}
			case indexer.PhaseComplete:
				if bar != nil {
					bar.Finish()
				}
				fmt.Println("Done.")
			case indexer.PhaseError:
				fmt.Println("Error:", ev.Message)
			}
		}
	}()

	return done
}
