package ports

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractFlowchart() *domain.Flowchart {
	return domain.New(
		[]domain.Node{
			{ID: "node1", Label: "Start"},
			{ID: "node2", Label: "Process"},
			{ID: "node3", Label: "End"},
		},
		[]domain.Edge{
			{Source: "node1", Target: "node2"},
			{Source: "node2", Target: "node3"},
		},
	)
}

// RunFlowchartStoreContract runs a suite of tests to verify that a FlowchartStore implementation
// adheres to the defined interface contract.
func RunFlowchartStoreContract(t *testing.T, store FlowchartStore) {
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		input := contractFlowchart()
		input.ID = "client-supplied"

		id, err := store.Create(ctx, input)
		require.NoError(t, err, "Create should not return error")
		assert.NotEqual(t, "client-supplied", id, "Client supplied IDs must be discarded")

		parsed, err := uuid.Parse(id)
		require.NoError(t, err, "IDs should be UUIDs")
		assert.Equal(t, uuid.Version(4), parsed.Version())

		loaded, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, loaded.ID)
		assert.Equal(t, contractFlowchart().Nodes, loaded.Nodes)
		assert.Equal(t, contractFlowchart().Edges, loaded.Edges)
	})

	t.Run("Create Empty", func(t *testing.T) {
		id, err := store.Create(ctx, domain.New(nil, nil))
		require.NoError(t, err)

		loaded, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, loaded.Nodes)
		assert.NotNil(t, loaded.Edges)
		assert.Empty(t, loaded.Nodes)
		assert.Empty(t, loaded.Edges)
	})

	t.Run("Create Invalid", func(t *testing.T) {
		before, err := store.List(ctx)
		require.NoError(t, err)

		invalid := domain.New(
			[]domain.Node{{ID: "node1"}},
			[]domain.Edge{{Source: "node2", Target: "node3"}},
		)
		_, err = store.Create(ctx, invalid)
		assert.ErrorIs(t, err, domain.ErrInvalidFlowchart)
		assert.ErrorIs(t, err, domain.ErrDanglingReference)

		after, err := store.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, before, after, "Invalid flowcharts must not be stored")
	})

	t.Run("Nil Flowchart", func(t *testing.T) {
		_, err := store.Create(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidFlowchart)

		id, err := store.Create(ctx, contractFlowchart())
		require.NoError(t, err)
		_, err = store.Update(ctx, id, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidFlowchart)

		loaded, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Len(t, loaded.Nodes, 3)
	})

	t.Run("Get Returns Copies", func(t *testing.T) {
		id, err := store.Create(ctx, contractFlowchart())
		require.NoError(t, err)

		first, err := store.Get(ctx, id)
		require.NoError(t, err)
		first.Nodes[0].Label = "mutated"
		first.Edges = nil

		second, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Start", second.Nodes[0].Label)
		assert.Len(t, second.Edges, 2)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrFlowchartNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		id, err := store.Create(ctx, contractFlowchart())
		require.NoError(t, err)

		replacement := contractFlowchart()
		replacement.ID = "something-else"
		replacement.Nodes = append(replacement.Nodes, domain.Node{ID: "node4", Label: "New Node"})
		replacement.Edges = append(replacement.Edges, domain.Edge{Source: "node3", Target: "node4"})

		updated, err := store.Update(ctx, id, replacement)
		require.NoError(t, err)
		assert.Equal(t, id, updated.ID, "Update must keep the stored ID")
		assert.Len(t, updated.Nodes, 4)

		loaded, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, loaded.ID)
		assert.Equal(t, replacement.Nodes, loaded.Nodes)
		assert.Equal(t, replacement.Edges, loaded.Edges)
	})

	t.Run("Update Invalid Leaves Previous Value", func(t *testing.T) {
		id, err := store.Create(ctx, contractFlowchart())
		require.NoError(t, err)

		before, err := store.Get(ctx, id)
		require.NoError(t, err)

		invalid := domain.New(
			[]domain.Node{{ID: "node1"}},
			[]domain.Edge{{Source: "node1", Target: "node2"}},
		)
		_, err = store.Update(ctx, id, invalid)
		assert.ErrorIs(t, err, domain.ErrDanglingReference)

		after, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Update Non-Existent", func(t *testing.T) {
		_, err := store.Update(ctx, uuid.NewString(), contractFlowchart())
		assert.ErrorIs(t, err, domain.ErrFlowchartNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id, err := store.Create(ctx, contractFlowchart())
		require.NoError(t, err)

		err = store.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrFlowchartNotFound, "Get after Delete should return ErrFlowchartNotFound")

		err = store.Delete(ctx, id)
		assert.ErrorIs(t, err, domain.ErrFlowchartNotFound, "Second Delete should return ErrFlowchartNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1, err := store.Create(ctx, contractFlowchart())
		require.NoError(t, err)
		id2, err := store.Create(ctx, contractFlowchart())
		require.NoError(t, err)

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
		assert.IsIncreasing(t, ids)
	})

	t.Run("Concurrent Creates", func(t *testing.T) {
		const workers = 32
		ids := make([]string, workers)
		errs := make([]error, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids[i], errs[i] = store.Create(ctx, contractFlowchart())
			}(i)
		}
		wg.Wait()

		seen := make(map[string]bool, workers)
		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i])
			assert.False(t, seen[ids[i]], "duplicate id %s", ids[i])
			seen[ids[i]] = true
		}
	})
}
