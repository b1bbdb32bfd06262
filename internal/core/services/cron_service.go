package services

import (
	"context"
	"log"
	"time"

	"affiliatehub/internal/config"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds one run of a background job
const jobTimeout = 5 * time.Minute

// TokenCleaner deletes expired refresh tokens
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// KeySweeper drops expired rate-limit windows
type KeySweeper interface {
	Sweep(window time.Duration) int
}

// CronService runs scheduled maintenance jobs
type CronService struct {
	cron      *cron.Cron
	registry  *CodeRegistry
	tokens    TokenCleaner
	sweeper   KeySweeper
	batchSize int
	window    time.Duration
	schedules config.CronConfig
}

// NewCronService creates a new cron service. sweeper may be nil.
func NewCronService(registry *CodeRegistry, tokens TokenCleaner, sweeper KeySweeper, cfg *config.Config) *CronService {
	return &CronService{
		cron:      cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		registry:  registry,
		tokens:    tokens,
		sweeper:   sweeper,
		batchSize: cfg.Affiliate.LookupBatchSize,
		window:    cfg.RateLimit.Window,
		schedules: cfg.Cron,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedules.CodeSweep, s.RunCodeSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.schedules.TokenCleanup, s.RunTokenCleanup); err != nil {
		return err
	}
	if s.sweeper != nil {
		if _, err := s.cron.AddFunc("@every 1m", s.RunRateLimitSweep); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Printf("🚀 CronService started (code sweep: %s, token cleanup: %s)", s.schedules.CodeSweep, s.schedules.TokenCleanup)
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// RunCodeSweep provisions inactive codes for confirmed sales without one
func (s *CronService) RunCodeSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	created, err := s.registry.SweepSales(ctx, s.batchSize)
	if err != nil {
		log.Printf("❌ Code sweep failed after %d codes: %v", created, err)
		return
	}
	if created > 0 {
		log.Printf("✅ Code sweep provisioned %d codes", created)
	}
}

// RunTokenCleanup deletes expired refresh tokens
func (s *CronService) RunTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	deleted, err := s.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		log.Printf("❌ Token cleanup failed: %v", err)
		return
	}
	log.Printf("✅ Token cleanup removed %d refresh tokens", deleted)
}

// RunRateLimitSweep drops rate-limit windows that already elapsed
func (s *CronService) RunRateLimitSweep() {
	if s.sweeper == nil {
		return
	}
	if removed := s.sweeper.Sweep(s.window); removed > 0 {
		log.Printf("🧹 Rate limit sweep removed %d keys", removed)
	}
}
