package familyconfig

import (
	"context"
	"database/sql"
	"testing"

	"chore-workers/internal/common/database"
	"chore-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const query = `SELECT ai_enabled, ai_credential FROM family_ai_settings WHERE family_id = \$1`

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(database.NewPostgresFromDB(db)), mock
}

func TestPostgresStoreGetAIConfig(t *testing.T) {
	tests := []struct {
		name       string
		rows       *sqlmock.Rows
		wantUsable bool
		wantCred   string
	}{
		{
			name:       "enabled with credential",
			rows:       sqlmock.NewRows([]string{"ai_enabled", "ai_credential"}).AddRow(true, "key-123"),
			wantUsable: true,
			wantCred:   "key-123",
		},
		{
			name:       "disabled",
			rows:       sqlmock.NewRows([]string{"ai_enabled", "ai_credential"}).AddRow(false, "key-123"),
			wantUsable: false,
			wantCred:   "key-123",
		},
		{
			name:       "null credential",
			rows:       sqlmock.NewRows([]string{"ai_enabled", "ai_credential"}).AddRow(true, nil),
			wantUsable: false,
			wantCred:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectQuery(query).WithArgs("fam-1").WillReturnRows(tt.rows)

			cfg, err := store.GetAIConfig(context.Background(), "fam-1")

			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, "fam-1", cfg.FamilyID)
			assert.Equal(t, tt.wantCred, cfg.Credential)
			assert.Equal(t, tt.wantUsable, cfg.Usable())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStoreMissingFamily(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(query).WithArgs("fam-404").WillReturnError(sql.ErrNoRows)

	cfg, err := store.GetAIConfig(context.Background(), "fam-404")

	assert.NoError(t, err)
	assert.Nil(t, cfg)
	assert.False(t, cfg.Usable())
}

func TestPostgresStoreQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(query).WithArgs("fam-1").WillReturnError(sql.ErrConnDone)

	cfg, err := store.GetAIConfig(context.Background(), "fam-1")

	assert.Nil(t, cfg)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeFamilyConfigLookupFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestStaticStore(t *testing.T) {
	store := NewStaticStore(AIConfig{FamilyID: "fam-1", AIEnabled: true, Credential: "k"})

	cfg, err := store.GetAIConfig(context.Background(), "fam-1")
	require.NoError(t, err)
	assert.True(t, cfg.Usable())

	cfg, err = store.GetAIConfig(context.Background(), "fam-2")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	store.Put(AIConfig{FamilyID: "fam-2", AIEnabled: false, Credential: "k"})
	cfg, err = store.GetAIConfig(context.Background(), "fam-2")
	require.NoError(t, err)
	assert.False(t, cfg.Usable())
}
