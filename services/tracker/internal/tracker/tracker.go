package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/02loveslollipop/iss-ears/internal/issnow"
	"github.com/02loveslollipop/iss-ears/internal/metrics"
	"github.com/02loveslollipop/iss-ears/internal/models"
	"github.com/02loveslollipop/iss-ears/internal/nabaztag"
	"github.com/02loveslollipop/iss-ears/internal/region"
)

// PositionFetcher returns the current ISS position.
type PositionFetcher interface {
	FetchPosition(ctx context.Context) (models.Position, error)
}

// Dispatcher sends a command batch to the device.
type Dispatcher interface {
	Send(ctx context.Context, batch nabaztag.Batch) ([]byte, error)
	Addr() string
}

// Recorder persists dispatch attempts.
type Recorder interface {
	RecordDispatch(ctx context.Context, rec models.DispatchRecord) error
}

// Outcome summarizes one polling iteration.
type Outcome struct {
	Position   models.Position
	FetchErr   error
	InRegion   bool
	Dispatched bool
	Response   []byte
	SendErr    error
}

// Tracker runs the fetch, classify and dispatch loop.
type Tracker struct {
	fetcher    PositionFetcher
	dispatcher Dispatcher
	recorder   Recorder
	box        region.Box
	batch      nabaztag.Batch
	interval   time.Duration
	dryRun     bool
	out        io.Writer
	logger     *logrus.Logger
	now        func() time.Time
}

// Options holds the optional Tracker collaborators.
type Options struct {
	Box      region.Box
	Batch    nabaztag.Batch
	Interval time.Duration
	DryRun   bool
	Recorder Recorder
	Out      io.Writer
}

// New builds a Tracker. Zero option fields take the France box, the default
// batch, a 10s interval and io.Discard.
func New(fetcher PositionFetcher, dispatcher Dispatcher, logger *logrus.Logger, opts Options) *Tracker {
	if opts.Box == (region.Box{}) {
		opts.Box = region.France
	}
	if len(opts.Batch) == 0 {
		opts.Batch = nabaztag.DefaultBatch()
	}
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Tracker{
		fetcher:    fetcher,
		dispatcher: dispatcher,
		recorder:   opts.Recorder,
		box:        opts.Box,
		batch:      opts.Batch,
		interval:   opts.Interval,
		dryRun:     opts.DryRun,
		out:        opts.Out,
		logger:     logger,
		now:        time.Now,
	}
}

// Run polls until ctx is canceled. It returns nil on cancellation.
func (t *Tracker) Run(ctx context.Context) error {
	t.logger.WithFields(logrus.Fields{
		"interval": t.interval.String(),
		"region":   t.box.Name,
		"target":   t.dispatcher.Addr(),
		"dry_run":  t.dryRun,
	}).Info("Tracker started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Tracker stopped")
			return nil
		case <-timer.C:
		}

		t.Tick(ctx)
		timer.Reset(t.interval)
	}
}

// Tick runs a single iteration. Failures are logged and reported in the
// Outcome; none of them abort the loop.
func (t *Tracker) Tick(ctx context.Context) Outcome {
	var out Outcome

	start := t.now()
	pos, err := t.fetcher.FetchPosition(ctx)
	metrics.ObserveFetch(fetchResult(err), t.now().Sub(start))
	if err != nil {
		// unknown position, classified below like any other
		out.FetchErr = err
		pos = models.Position{}
	}
	out.Position = pos

	out.InRegion = region.Classify(t.logger, t.box, pos)
	if err == nil {
		metrics.ObservePosition(pos.Latitude, pos.Longitude, out.InRegion)
	}

	if !out.InRegion {
		fmt.Fprintf(t.out, "The ISS is not over %s.\n", t.box.Name)
		return out
	}

	t.dispatch(ctx, &out)
	fmt.Fprintf(t.out, "The ISS is currently over %s.\n", t.box.Name)
	return out
}

func (t *Tracker) dispatch(ctx context.Context, out *Outcome) {
	log := t.logger.WithField("target", t.dispatcher.Addr())

	if t.dryRun {
		payload, _ := t.batch.Encode()
		log.WithField("payload", string(payload)).Info("dry-run: skipping nabaztag dispatch")
		metrics.Dispatches.WithLabelValues("dry_run").Inc()
		return
	}

	log.Info("Starting send commands to nabaztag")
	resp, err := t.dispatcher.Send(ctx, t.batch)
	out.Dispatched = true
	out.Response = resp
	out.SendErr = err

	if err != nil {
		log.WithField("error", err.Error()).Error("Nabaztag dispatch failed")
		fmt.Fprintf(t.out, "Socket error: %v\n", err)
		metrics.Dispatches.WithLabelValues("error").Inc()
	} else {
		fmt.Fprintf(t.out, "Received %q\n", resp)
		metrics.Dispatches.WithLabelValues("ok").Inc()
	}

	t.record(ctx, *out)
}

func (t *Tracker) record(ctx context.Context, out Outcome) {
	if t.recorder == nil {
		return
	}

	payload, _ := t.batch.Encode()
	rec := models.NewDispatchRecord(t.now(), out.Position, t.dispatcher.Addr(), string(payload), out.Response, out.SendErr)

	if err := t.recorder.RecordDispatch(ctx, rec); err != nil {
		t.logger.WithField("error", err.Error()).Error("Failed to record dispatch")
	}
}

func fetchResult(err error) string {
	if err == nil {
		return "ok"
	}
	var fe *issnow.FetchError
	if errors.As(err, &fe) {
		return string(fe.Kind)
	}
	return "error"
}
