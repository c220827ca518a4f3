package traversal_test

import (
	"fmt"
	"testing"

	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/aretw0/flowcharts/pkg/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain() *domain.Flowchart {
	return domain.New(
		[]domain.Node{{ID: "node1", Label: "Start"}, {ID: "node2", Label: "Process"}, {ID: "node3", Label: "End"}},
		[]domain.Edge{{Source: "node1", Target: "node2"}, {Source: "node2", Target: "node3"}},
	)
}

func TestOutgoingEdges(t *testing.T) {
	tests := []struct {
		name   string
		fc     *domain.Flowchart
		nodeID string
		want   []domain.Edge
	}{
		{
			name:   "First Node Of Chain",
			fc:     chain(),
			nodeID: "node1",
			want:   []domain.Edge{{Source: "node1", Target: "node2"}},
		},
		{
			name:   "Sink Node",
			fc:     chain(),
			nodeID: "node3",
			want:   []domain.Edge{},
		},
		{
			name:   "Unknown Node",
			fc:     chain(),
			nodeID: "ghost",
			want:   []domain.Edge{},
		},
		{
			name: "Preserves Order And Duplicates",
			fc: domain.New(
				[]domain.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
				[]domain.Edge{{Source: "a", Target: "c"}, {Source: "b", Target: "a"}, {Source: "a", Target: "b"}, {Source: "a", Target: "c"}},
			),
			nodeID: "a",
			want:   []domain.Edge{{Source: "a", Target: "c"}, {Source: "a", Target: "b"}, {Source: "a", Target: "c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := traversal.OutgoingEdges(tt.fc, tt.nodeID)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConnectedComponent(t *testing.T) {
	tests := []struct {
		name   string
		fc     *domain.Flowchart
		nodeID string
		want   []string
	}{
		{
			name:   "Chain From Head",
			fc:     chain(),
			nodeID: "node1",
			want:   []string{"node1", "node2", "node3"},
		},
		{
			name:   "Chain From Tail Follows Edges Backwards",
			fc:     chain(),
			nodeID: "node3",
			want:   []string{"node1", "node2", "node3"},
		},
		{
			name:   "Isolated Node",
			fc:     domain.New([]domain.Node{{ID: "solo"}, {ID: "a"}, {ID: "b"}}, []domain.Edge{{Source: "a", Target: "b"}}),
			nodeID: "solo",
			want:   []string{"solo"},
		},
		{
			name:   "Unknown Start Is Returned As Singleton",
			fc:     chain(),
			nodeID: "ghost",
			want:   []string{"ghost"},
		},
		{
			name: "Cycle Terminates",
			fc: domain.New(
				[]domain.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
				[]domain.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}, {Source: "c", Target: "a"}},
			),
			nodeID: "a",
			want:   []string{"a", "b", "c"},
		},
		{
			name: "Separate Components Stay Apart",
			fc: domain.New(
				[]domain.Node{{ID: "a"}, {ID: "b"}, {ID: "x"}, {ID: "y"}},
				[]domain.Edge{{Source: "a", Target: "b"}, {Source: "y", Target: "x"}},
			),
			nodeID: "x",
			want:   []string{"x", "y"},
		},
		{
			name:   "Self Loop",
			fc:     domain.New([]domain.Node{{ID: "a"}}, []domain.Edge{{Source: "a", Target: "a"}}),
			nodeID: "a",
			want:   []string{"a"},
		},
		{
			name:   "Nil Flowchart",
			fc:     nil,
			nodeID: "a",
			want:   []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, traversal.ConnectedComponent(tt.fc, tt.nodeID))
		})
	}
}

func TestConnectedComponent_LargeChain(t *testing.T) {
	// Deep enough to overflow a naive recursive search on small stacks.
	const size = 200000
	nodes := make([]domain.Node, size)
	edges := make([]domain.Edge, 0, size-1)
	for i := 0; i < size; i++ {
		nodes[i] = domain.Node{ID: fmt.Sprintf("n%06d", i)}
		if i > 0 {
			edges = append(edges, domain.Edge{Source: nodes[i-1].ID, Target: nodes[i].ID})
		}
	}
	fc := domain.New(nodes, edges)

	got := traversal.ConnectedComponent(fc, "n000000")
	require.Len(t, got, size)
	assert.Equal(t, "n000000", got[0])
	assert.Equal(t, fmt.Sprintf("n%06d", size-1), got[size-1])
}
