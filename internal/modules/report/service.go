// README: Post-walk summary generation for the owner.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"firebase.google.com/go/v4/db"

	"leash/internal/modules/walk"
)

// Service writes a short generated recap of a completed walk to RTDB, where
// the owner app displays it on the walk's history entry. Everything here is
// best-effort: a missing generator or a failed write never affects the walk
// lifecycle.
type Service struct {
	gen    TextGenerator
	rtdb   *db.Client
	logger *slog.Logger
}

func NewService(gen TextGenerator, rtdb *db.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, rtdb: rtdb, logger: logger}
}

const generateTimeout = 20 * time.Second

// WalkCompleted fires summary generation in the background. The caller's
// context is deliberately not reused: completion has already been committed
// and the HTTP request that triggered it may be long gone.
func (s *Service) WalkCompleted(_ context.Context, w *walk.WalkRequest, startedAtMs, endedAtMs int64) {
	if s.gen == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()

		text, err := s.gen.Generate(ctx, buildPrompt(w, startedAtMs, endedAtMs))
		if err != nil {
			s.logger.Warn("generating walk summary", "walk_id", w.ID, "err", err)
			return
		}
		s.store(ctx, w, text)
	}()
}

func (s *Service) store(ctx context.Context, w *walk.WalkRequest, text string) {
	if s.rtdb == nil {
		s.logger.Info("walk summary", "walk_id", w.ID, "summary", text)
		return
	}
	entry := map[string]interface{}{
		"summary":    text,
		"created_at": time.Now().UnixMilli(),
	}
	if err := s.rtdb.NewRef("walk_reports/"+string(w.ID)).Set(ctx, entry); err != nil {
		s.logger.Warn("storing walk summary", "walk_id", w.ID, "err", err)
	}
}

func buildPrompt(w *walk.WalkRequest, startedAtMs, endedAtMs int64) string {
	elapsed := walk.FormatElapsed(endedAtMs - startedAtMs)
	pets := strings.Join(w.PetNames, ", ")
	if pets == "" {
		pets = "the dog"
	}
	return fmt.Sprintf(
		"Write a warm two-sentence recap for a dog owner whose pet(s) %s "+
			"just finished a %d-minute walk (actual time on the move %s) near %s. "+
			"No emojis, no greetings, plain text.",
		pets, w.DurationMins, elapsed, w.PickupAddress,
	)
}
