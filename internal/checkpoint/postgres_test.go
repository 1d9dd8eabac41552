package checkpoint

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Integration test; requires a reachable database.
func TestPostgresStoreIntegration(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	store, err := ConnectPostgres(context.Background(), databaseURL)
	require.NoError(t, err)
	defer store.Close()

	storeContract(t, store)
}
