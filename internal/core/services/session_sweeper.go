package services

import (
	"context"
	"log"
	"time"

	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/repositories"
	"github.com/villalobos-05/pagame-backend/internal/config"

	"github.com/robfig/cron/v3"
)

// SessionSweeper clears refresh tokens older than the configured session
// window. Rotation already invalidates tokens on use; the sweep bounds the
// lifetime of sessions that simply went idle.
type SessionSweeper struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
	cron     *cron.Cron
}

// NewSessionSweeper creates a new session sweeper
func NewSessionSweeper(userRepo repositories.UserRepository, cfg *config.Config) *SessionSweeper {
	return &SessionSweeper{
		userRepo: userRepo,
		cfg:      cfg,
		cron:     cron.New(),
	}
}

// Start schedules the nightly sweep (03:30)
func (s *SessionSweeper) Start() {
	s.cron.AddFunc("30 3 * * *", s.sweep)
	s.cron.Start()
	log.Println("🚀 SessionSweeper started")
}

// Stop stops the scheduler
func (s *SessionSweeper) Stop() {
	s.cron.Stop()
	log.Println("🛑 SessionSweeper stopped")
}

func (s *SessionSweeper) sweep() {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.JWT.RefreshTokenDays)

	cleared, err := s.userRepo.ClearRefreshTokensIssuedBefore(context.Background(), cutoff)
	if err != nil {
		log.Printf("❌ Session sweep error: %v", err)
		return
	}
	if cleared > 0 {
		log.Printf("✅ Session sweep cleared %d stale sessions", cleared)
	}
}
