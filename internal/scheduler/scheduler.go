package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/aemet-tools/antartida-api/internal/metrics"
	"github.com/aemet-tools/antartida-api/internal/store"
	"github.com/aemet-tools/antartida-api/internal/weather"
)

const probeTimeout = 30 * time.Second

// Scheduler periodically probes upstream availability by fetching a
// one-day window for the probe station and records the outcome.
type Scheduler struct {
	scheduler *gocron.Scheduler
	fetcher   weather.Fetcher
	store     *store.MemoryStore
	station   string
	interval  time.Duration
	loc       *time.Location
}

// New creates a new Scheduler.
func New(fetcher weather.Fetcher, st *store.MemoryStore, station string, interval time.Duration, loc *time.Location) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		fetcher:   fetcher,
		store:     st,
		station:   station,
		interval:  interval,
		loc:       loc,
	}
}

// Start schedules the periodic probe and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.station == "" {
		log.Println("scheduler: no probe station configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.RunProbe()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunProbe performs one availability probe against the upstream,
// fetching yesterday's observations for the probe station. The window
// is a single day so the probe stays cheap against the call quota.
func (s *Scheduler) RunProbe() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	day := time.Now().In(s.loc).AddDate(0, 0, -1).Format("2006-01-02")
	initDate, endDate, err := weather.CivilRange(day, day, s.loc)
	if err != nil {
		log.Printf("scheduler: probe range: %v", err)
		return
	}

	started := time.Now()
	_, err = s.fetcher.Fetch(ctx, initDate, endDate, s.station)

	res := store.ProbeResult{
		Station:   s.station,
		CheckedAt: started,
		Healthy:   err == nil,
		Latency:   time.Since(started),
	}
	if err != nil {
		res.Error = err.Error()
		metrics.UpstreamUp.Set(0)
		log.Printf("scheduler: probe failed for %s: %v", s.station, err)
	} else {
		metrics.UpstreamUp.Set(1)
	}

	s.store.SaveResult(res)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
