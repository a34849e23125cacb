package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/database"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/repositories"
)

// PurgeResult reports what a trash purge removed.
type PurgeResult struct {
	PurgedAssetIDs []string `json:"purged_asset_ids"`
	SkippedIDs     []string `json:"skipped_ids,omitempty"`
}

// TrashService lists and purges soft-deleted assets. Purge is the only
// hard delete in the system; links to purged assets are deliberately
// retained as audit trail.
type TrashService struct {
	db     database.TxRunner
	assets repositories.AssetRepository
	logger *zap.Logger
}

// NewTrashService creates a new TrashService.
func NewTrashService(db database.TxRunner, assets repositories.AssetRepository, logger *zap.Logger) *TrashService {
	return &TrashService{db: db, assets: assets, logger: logger.Named("trash")}
}

// List returns the soft-deleted assets, oldest deletion first.
func (s *TrashService) List(ctx context.Context) ([]models.Asset, error) {
	return s.assets.ListDeleted(ctx)
}

// Purge hard-deletes every asset in the trash. Each row is removed in
// its own statement so one failure does not abort the sweep.
func (s *TrashService) Purge(ctx context.Context) (*PurgeResult, error) {
	deleted, err := s.assets.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}

	result := &PurgeResult{}
	for _, a := range deleted {
		if err := s.assets.HardDelete(ctx, a.ID); err != nil {
			s.logger.Warn("failed to purge asset",
				zap.String("asset_id", a.ID), zap.Error(err))
			result.SkippedIDs = append(result.SkippedIDs, a.ID)
			continue
		}
		result.PurgedAssetIDs = append(result.PurgedAssetIDs, a.ID)
	}

	s.logger.Info("trash purged",
		zap.Int("purged", len(result.PurgedAssetIDs)),
		zap.Int("skipped", len(result.SkippedIDs)))
	return result, nil
}
