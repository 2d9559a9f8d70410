package batch

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"sheet_geocoder/internal/geo"
	"sheet_geocoder/internal/resolution"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// Admitter decides the final coordinate for a resolved row
type Admitter interface {
	Admit(coord geo.Coordinate) geo.Coordinate
}

type Options struct {
	// Rate is the sustained number of lookups started per second
	Rate float64
	// Burst is how many lookups may start back to back
	Burst int
	// ShowProgress draws a progress bar when stderr is a terminal
	ShowProgress bool
}

// DefaultOptions starts one lookup every 100ms
var DefaultOptions = Options{
	Rate:  10,
	Burst: 1,
}

// Summary describes a finished run
type Summary struct {
	Rows       int
	Unresolved int
	Jittered   int
	Elapsed    time.Duration
}

type Orchestrator struct {
	resolver resolution.Resolver
	admitter Admitter
	limiter  *rate.Limiter
	options  Options
}

func New(resolver resolution.Resolver, admitter Admitter, options Options) *Orchestrator {
	if options.Rate <= 0 {
		options.Rate = DefaultOptions.Rate
	}
	if options.Burst <= 0 {
		options.Burst = DefaultOptions.Burst
	}
	return &Orchestrator{
		resolver: resolver,
		admitter: admitter,
		limiter:  rate.NewLimiter(rate.Limit(options.Rate), options.Burst),
		options:  options,
	}
}

// Run resolves every row and returns one coordinate per row, where result i
// belongs to rows[i]. Row i takes the limiter's i-th slot; once started,
// lookups overlap. Rows whose lookup fails get geo.Sentinel. Run returns only
// after every row is done.
func (o *Orchestrator) Run(ctx context.Context, rows []geo.InputRow) ([]geo.Coordinate, Summary) {
	start := time.Now()
	results := make([]geo.Coordinate, len(rows))

	log.Info().
		Int("rows", len(rows)).
		Float64("rate", o.options.Rate).
		Int("burst", o.options.Burst).
		Msg("Starting geocoding batch")

	var bar *progressbar.ProgressBar
	if o.options.ShowProgress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(rows),
			progressbar.OptionSetDescription("Geocoding"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var unresolved, jittered int64
	var wg sync.WaitGroup

	for i, row := range rows {
		// slots are handed out in row order, so row i never starts before row i-1
		waitErr := o.limiter.Wait(ctx)
		wg.Add(1)

		go func(i int, row geo.InputRow, waitErr error) {
			defer wg.Done()

			coord, ok := o.resolveRow(ctx, row, waitErr)
			if !ok {
				atomic.AddInt64(&unresolved, 1)
			}

			admitted := o.admitter.Admit(coord)
			if admitted != coord {
				atomic.AddInt64(&jittered, 1)
				log.Debug().
					Int("row", row.Index).
					Stringer("resolved", coord).
					Stringer("admitted", admitted).
					Msg("Coordinate collided, jittered")
			}

			results[i] = admitted

			if bar != nil {
				if err := bar.Add(1); err != nil {
					log.Debug().Err(err).Msg("Failed to update progress bar")
				}
			}
		}(i, row, waitErr)
	}

	wg.Wait()

	summary := Summary{
		Rows:       len(rows),
		Unresolved: int(atomic.LoadInt64(&unresolved)),
		Jittered:   int(atomic.LoadInt64(&jittered)),
		Elapsed:    time.Since(start),
	}

	log.Info().
		Int("rows", summary.Rows).
		Int("unresolved", summary.Unresolved).
		Int("jittered", summary.Jittered).
		Dur("elapsed", summary.Elapsed).
		Msg("Geocoding batch complete")

	return results, summary
}

func (o *Orchestrator) resolveRow(ctx context.Context, row geo.InputRow, waitErr error) (geo.Coordinate, bool) {
	if waitErr != nil {
		log.Warn().Err(waitErr).Int("row", row.Index).Msg("Rate limiter wait failed, using sentinel coordinate")
		return geo.Sentinel, false
	}
	return resolution.ResolveOrSentinel(ctx, o.resolver, row)
}
