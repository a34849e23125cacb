package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/apperrors"
	"github.com/dailies-studio/dailies-engine/pkg/database"
	"github.com/dailies-studio/dailies-engine/pkg/models"
	"github.com/dailies-studio/dailies-engine/pkg/repositories"
)

// CreateAssetInput carries the fields a caller may set on a new asset.
type CreateAssetInput struct {
	Kind        string  `json:"kind"`
	URI         *string `json:"uri,omitempty"`
	MimeType    *string `json:"mime_type,omitempty"`
	SHA256      *string `json:"sha256,omitempty"`
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
	DurationMS  *int    `json:"duration_ms,omitempty"`
	ProjectID   *string `json:"project_id,omitempty"`
	SeriesID    *string `json:"series_id,omitempty"`
	ShotID      *string `json:"shot_id,omitempty"`
	StoragePath *string `json:"storage_path,omitempty"`
	Meta        *string `json:"meta,omitempty"`
}

// AssetTraceability summarizes where an asset came from and where it
// is used, read off the link graph.
type AssetTraceability struct {
	Asset         models.Asset           `json:"asset"`
	ProducedBy    []models.Link          `json:"produced_by"`
	ReferencedBy  []models.Link          `json:"referenced_by"`
	OutboundEdges []models.EffectiveEdge `json:"outbound_edges"`
}

// AssetService owns asset CRUD and soft deletion.
type AssetService struct {
	db     database.TxRunner
	assets repositories.AssetRepository
	links  repositories.LinkRepository
	logger *zap.Logger
}

// NewAssetService creates a new AssetService.
func NewAssetService(db database.TxRunner, assets repositories.AssetRepository, links repositories.LinkRepository, logger *zap.Logger) *AssetService {
	return &AssetService{db: db, assets: assets, links: links, logger: logger.Named("assets")}
}

// Create persists a new asset.
func (s *AssetService) Create(ctx context.Context, in CreateAssetInput) (*models.Asset, error) {
	if strings.TrimSpace(in.Kind) == "" {
		return nil, apperrors.Validation(apperrors.CodeBadRequest, "kind is required")
	}
	a := &models.Asset{
		Kind:        in.Kind,
		URI:         in.URI,
		MimeType:    in.MimeType,
		SHA256:      in.SHA256,
		Width:       in.Width,
		Height:      in.Height,
		DurationMS:  in.DurationMS,
		ProjectID:   in.ProjectID,
		SeriesID:    in.SeriesID,
		ShotID:      in.ShotID,
		StoragePath: in.StoragePath,
		MetaJSON:    in.Meta,
	}
	if err := s.assets.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns one asset, trash included.
func (s *AssetService) Get(ctx context.Context, id string) (*models.Asset, error) {
	return s.assets.GetByID(ctx, id)
}

// List returns assets, newest first, excluding the trash unless asked.
func (s *AssetService) List(ctx context.Context, includeDeleted bool, limit, offset int) ([]models.Asset, error) {
	return s.assets.List(ctx, includeDeleted, limit, offset)
}

// SoftDelete moves an asset to the trash. Links are untouched: the
// graph stays the audit record.
func (s *AssetService) SoftDelete(ctx context.Context, id string) error {
	return s.assets.SoftDelete(ctx, id)
}

// Traceability returns the asset with its alive inbound production and
// reference links plus its alive outbound edges. Tombstoned inbound
// pairs fold away the same as outbound ones.
func (s *AssetService) Traceability(ctx context.Context, id string) (*AssetTraceability, error) {
	a, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inbound, err := s.links.ListByDestination(ctx, models.TypeAsset, id)
	if err != nil {
		return nil, err
	}
	outbound, err := s.links.EffectiveEdges(ctx, models.TypeAsset, id)
	if err != nil {
		return nil, err
	}

	trace := &AssetTraceability{Asset: *a, OutboundEdges: outbound}
	for _, l := range models.AliveInbound(inbound) {
		switch l.BaseRel() {
		case models.RelProducedAsset:
			trace.ProducedBy = append(trace.ProducedBy, l)
		case models.RelIncludesReferenceAsset:
			trace.ReferencedBy = append(trace.ReferencedBy, l)
		}
	}
	return trace, nil
}
