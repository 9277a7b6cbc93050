package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-kinship/internal/store"
	"github.com/inodb/vibe-kinship/internal/store/storetest"
)

// dsnEnv names a scratch database; the store tests drop its tables.
const dsnEnv = "VIBE_KINSHIP_TEST_POSTGRES_DSN"

func TestStore(t *testing.T) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := Open(ctx, dsn)
		require.NoError(t, err)
		for _, table := range []string{"samples", "str_profiles", "paternity_results", "locus_results"} {
			_, err := s.DB().ExecContext(ctx, "DELETE FROM "+table)
			require.NoError(t, err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpen_OpenError(t *testing.T) {
	boom := errors.New("boom")
	orig := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, defaultDriver, driver)
		assert.Equal(t, defaultDSN, dsn)
		return nil, boom
	}
	t.Cleanup(func() { sqlOpen = orig })

	_, err := Open(context.Background(), "")
	assert.ErrorIs(t, err, boom)
}

func TestDialect_NumberedPlaceholders(t *testing.T) {
	assert.True(t, Dialect.NumberedPlaceholders)
	assert.Equal(t, "postgres", Dialect.Name)
}
