// Package familyconfig reads the per-family AI settings: whether AI assistance
// is enabled for a household and which credential to call the text-generation
// service with.
package familyconfig

import (
	"context"
	"database/sql"
	stderrors "errors"
	"sync"

	"chore-workers/internal/common/database"
	"chore-workers/internal/common/errors"
)

type AIConfig struct {
	FamilyID   string `json:"familyId"`
	AIEnabled  bool   `json:"aiEnabled"`
	Credential string `json:"-"`
}

// Usable reports whether a gateway call may be made with this config.
func (c *AIConfig) Usable() bool {
	return c != nil && c.AIEnabled && c.Credential != ""
}

// Store looks up a family's AI configuration. A family without settings
// yields (nil, nil).
type Store interface {
	GetAIConfig(ctx context.Context, familyID string) (*AIConfig, error)
}

const selectAIConfig = `SELECT ai_enabled, ai_credential FROM family_ai_settings WHERE family_id = $1`

type PostgresStore struct {
	db *database.PostgresClient
}

func NewPostgresStore(db *database.PostgresClient) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetAIConfig(ctx context.Context, familyID string) (*AIConfig, error) {
	cfg := &AIConfig{FamilyID: familyID}
	var credential sql.NullString

	err := s.db.QueryRow(ctx, selectAIConfig, familyID).Scan(&cfg.AIEnabled, &credential)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewFamilyConfigLookupFailedError(familyID, err)
	}
	cfg.Credential = credential.String
	return cfg, nil
}

// StaticStore serves configs from memory; used for local runs and tests.
type StaticStore struct {
	mu      sync.RWMutex
	configs map[string]AIConfig
}

func NewStaticStore(configs ...AIConfig) *StaticStore {
	s := &StaticStore{configs: make(map[string]AIConfig, len(configs))}
	for _, c := range configs {
		s.configs[c.FamilyID] = c
	}
	return s
}

func (s *StaticStore) Put(cfg AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.FamilyID] = cfg
}

func (s *StaticStore) GetAIConfig(_ context.Context, familyID string) (*AIConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[familyID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}
