// Package scheduler runs the crawl pipelines on their configured cron
// cadences. Each source keeps its own cadence since the portals publish
// on different rhythms (monthly pricing lists, quarterly rosters).
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/sayouzone/sayou-healthcare/internal/crawler"
	"github.com/sayouzone/sayou-healthcare/internal/deliver"
	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// Job pairs a crawler with its cron expression.
type Job struct {
	Crawler crawler.Crawler
	Cron    string
}

// Scheduler triggers crawls and hands their results to the deliverer.
type Scheduler struct {
	jobs      []Job
	deliverer *deliver.Deliverer
	logger    *zap.Logger
	scheduler *gocron.Scheduler
}

func New(jobs []Job, d *deliver.Deliverer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		jobs:      jobs,
		deliverer: d,
		logger:    logger,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start registers every job and begins the cron loop in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		_, err := s.scheduler.Cron(job.Cron).Do(func() {
			s.runJob(ctx, job.Crawler)
		})
		if err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.Crawler.Source(), job.Cron, err)
		}
		s.logger.Info("crawl scheduled",
			zap.String("source", string(job.Crawler.Source())),
			zap.String("cron", job.Cron),
		)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop halts the cron loop. In-flight jobs finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runJob(ctx context.Context, c crawler.Crawler) {
	result, err := c.Crawl(ctx)
	if err != nil {
		s.logger.Error("scheduled crawl failed",
			zap.String("source", string(c.Source())),
			zap.Error(err),
		)
		return
	}
	if _, err := s.deliverer.Deliver(ctx, result); err != nil {
		s.logger.Error("scheduled delivery failed",
			zap.String("source", string(c.Source())),
			zap.String("run_id", result.RunID),
			zap.Error(err),
		)
	}
}

// RunOnce executes one crawl-and-deliver cycle immediately. The CLI
// subcommands use it; the cron loop goes through the same path.
func (s *Scheduler) RunOnce(ctx context.Context, c crawler.Crawler) (healthdata.CrawlResult, error) {
	result, err := c.Crawl(ctx)
	if err != nil {
		return healthdata.CrawlResult{}, err
	}
	if _, err := s.deliverer.Deliver(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}
