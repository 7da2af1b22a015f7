package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// BrandVoiceStore reads the per-user brand voice.
type BrandVoiceStore struct {
	pool Pool
}

func NewBrandVoiceStore(pool Pool) *BrandVoiceStore {
	return &BrandVoiceStore{pool: pool}
}

// GetByUser returns errs.ErrNotFound when the user has not set up a brand voice.
func (s *BrandVoiceStore) GetByUser(ctx context.Context, userID string) (*BrandVoice, error) {
	const q = `
SELECT id, user_id, business_name, tone, "values", talking_points, dos_donts, example_copy, updated_at
FROM brand_voices WHERE user_id = $1`

	var bv BrandVoice
	err := s.pool.QueryRow(ctx, q, userID).Scan(
		&bv.ID,
		&bv.UserID,
		&bv.BusinessName,
		&bv.Tone,
		&bv.Values,
		&bv.TalkingPoints,
		&bv.DosDonts,
		&bv.ExampleCopy,
		&bv.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "brand voice")
	}
	return &bv, nil
}

// CampaignStore reads campaigns scoped to their owner.
type CampaignStore struct {
	pool Pool
}

func NewCampaignStore(pool Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

func (s *CampaignStore) Get(ctx context.Context, userID string, id uuid.UUID) (*Campaign, error) {
	const q = `
SELECT id, user_id, name, goal, description, trigger_type, blueprint_id, is_active, created_at
FROM campaigns WHERE id = $1 AND user_id = $2`

	var c Campaign
	err := s.pool.QueryRow(ctx, q, id, userID).Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Goal,
		&c.Description,
		&c.TriggerType,
		&c.BlueprintID,
		&c.IsActive,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("campaign %s", id))
	}
	return &c, nil
}

// BlueprintStore reads blueprints scoped to their owner.
type BlueprintStore struct {
	pool Pool
}

func NewBlueprintStore(pool Pool) *BlueprintStore {
	return &BlueprintStore{pool: pool}
}

func (s *BlueprintStore) Get(ctx context.Context, userID string, id uuid.UUID) (*Blueprint, error) {
	const q = `
SELECT id, user_id, name, subject_pattern, structure, variables, optional_vars, example, created_at
FROM blueprints WHERE id = $1 AND user_id = $2`

	var b Blueprint
	err := s.pool.QueryRow(ctx, q, id, userID).Scan(
		&b.ID,
		&b.UserID,
		&b.Name,
		&b.SubjectPattern,
		&b.Structure,
		&b.Variables,
		&b.OptionalVars,
		&b.Example,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("blueprint %s", id))
	}
	return &b, nil
}
