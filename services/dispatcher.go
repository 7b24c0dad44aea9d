package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/yanni/community/store"
	"github.com/yanni/community/utils"
)

// Generator produces comment text for a post and never fails.
type Generator interface {
	Generate(ctx context.Context, title, content string) string
}

// Dispatcher runs AI comment jobs in the background, one goroutine per post.
// Jobs open their own session and write as the bot user; a failed job is
// logged and counted but never reaches the request that triggered it.
type Dispatcher struct {
	manager *store.Manager
	gen     Generator
	botID   uint
	wg      sync.WaitGroup
}

func NewDispatcher(manager *store.Manager, gen Generator, botID uint) *Dispatcher {
	return &Dispatcher{manager: manager, gen: gen, botID: botID}
}

// EnsureBot returns the id of the bot account, creating it when missing.
func EnsureBot(ctx context.Context, manager *store.Manager, email, nickname string) (uint, error) {
	var id uint
	err := manager.Run(ctx, func(s *store.Session) error {
		u, err := s.Users().EnsureUser(email, nickname)
		if err != nil {
			return err
		}
		id = u.ID
		return nil
	})
	return id, err
}

// Dispatch schedules a comment for the post. Call it only after the post's
// transaction has committed.
func (d *Dispatcher) Dispatch(postID uint, title, content string) {
	if d == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				utils.Logger.Error("ai comment job panicked", zap.Uint("post_id", postID), zap.Any("panic", r))
				utils.AIComments.WithLabelValues("panic").Inc()
			}
		}()
		d.run(postID, title, content)
	}()
}

func (d *Dispatcher) run(postID uint, title, content string) {
	ctx := context.Background()
	text := utils.SanitizeText(d.gen.Generate(ctx, title, content))
	err := d.manager.Run(ctx, func(s *store.Session) error {
		_, err := s.Comments().Create(postID, d.botID, text)
		return err
	})
	switch {
	case err == nil:
		utils.Logger.Info("ai comment created", zap.Uint("post_id", postID))
		utils.AIComments.WithLabelValues("stored").Inc()
	case errors.Is(err, store.ErrNotFound):
		// The post (or the bot) was deleted before the job finished
		utils.Logger.Info("ai comment skipped", zap.Uint("post_id", postID), zap.Error(err))
		utils.AIComments.WithLabelValues("skipped").Inc()
	case errors.Is(err, store.ErrValidation):
		utils.Logger.Warn("ai comment rejected", zap.Uint("post_id", postID), zap.Error(err))
		utils.AIComments.WithLabelValues("rejected").Inc()
	default:
		utils.Logger.Error("ai comment store failed", zap.Uint("post_id", postID), zap.Error(err))
		utils.AIComments.WithLabelValues("store_error").Inc()
	}
}

// Wait blocks until every dispatched job finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	if d == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
