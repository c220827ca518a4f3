package sql_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/flowcharts/pkg/adapters/sql"
	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/aretw0/flowcharts/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sql.Store {
	t.Helper()
	store, err := sql.Open(sql.DriverSQLite, filepath.Join(t.TempDir(), "flowcharts.db"))
	require.NoError(t, err, "Failed to open sqlite store")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLStore_Contract(t *testing.T) {
	ports.RunFlowchartStoreContract(t, openSQLite(t))
}

func TestSQLStore_PersistsAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowcharts.db")
	ctx := context.Background()

	first, err := sql.Open(sql.DriverSQLite, path)
	require.NoError(t, err)

	nodes := []domain.Node{{ID: "b", Label: "second"}, {ID: "a", Label: "first"}}
	edges := []domain.Edge{{Source: "b", Target: "a"}, {Source: "a", Target: "b"}}
	id, err := first.Create(ctx, domain.New(nodes, edges))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := sql.Open(sql.DriverSQLite, path)
	require.NoError(t, err)
	defer second.Close()

	loaded, err := second.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, nodes, loaded.Nodes, "Node order must survive a round trip")
	assert.Equal(t, edges, loaded.Edges, "Edge order must survive a round trip")
}

func TestSQLStore_UnsupportedDriver(t *testing.T) {
	_, err := sql.Open("oracle", "")
	assert.ErrorContains(t, err, "unsupported sql driver")
}
