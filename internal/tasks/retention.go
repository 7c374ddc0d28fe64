package tasks

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"chatroom-server/internal/repository"
)

// RetentionSweeper soft-deletes messages past the retention window on a
// nightly schedule. Rows keep their soft-delete flag forever; nothing is
// physically removed.
type RetentionSweeper struct {
	repo repository.MessageRepo
	days int
}

func NewRetentionSweeper(repo repository.MessageRepo, days int) *RetentionSweeper {
	return &RetentionSweeper{
		repo: repo,
		days: days,
	}
}

func (s *RetentionSweeper) Start() {
	if s.days <= 0 {
		log.Println("[WORKER] Retention disabled, keeping all messages")
		return
	}

	c := cron.New()

	_, err := c.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		cutoff := time.Now().AddDate(0, 0, -s.days)
		n, err := s.repo.SoftDeleteBefore(ctx, cutoff)
		if err != nil {
			log.Printf("[WORKER] Retention sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[WORKER] Soft-deleted %d messages older than %s", n, cutoff.Format("2006-01-02"))
		}
	})
	if err != nil {
		log.Printf("[WORKER] Error scheduling cron: %v", err)
		return
	}

	c.Start()
}
