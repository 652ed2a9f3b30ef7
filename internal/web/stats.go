package web

import (
	"context"

	"go.uber.org/zap"

	"warbler/internal/model"
)

// profileStats reads through the stats cache. Cache failures are logged and
// the counts come from the store; a store failure yields zero counts.
func (s *Server) profileStats(ctx context.Context, userID int64) model.Stats {
	st, ok, err := s.stats.Stats(ctx, userID)
	if err != nil {
		s.logger.Warn("stats cache read failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	if ok {
		return st
	}

	st, err = s.store.Stats(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count stats", zap.Int64("user_id", userID), zap.Error(err))
		return model.Stats{}
	}
	if err := s.stats.StoreStats(ctx, userID, st); err != nil {
		s.logger.Warn("stats cache write failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	return st
}

func (s *Server) invalidateStats(ctx context.Context, userIDs ...int64) {
	if err := s.stats.Invalidate(ctx, userIDs...); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Int64s("user_ids", userIDs), zap.Error(err))
	}
}
