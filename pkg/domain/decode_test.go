package domain_test

import (
	"testing"

	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGraph(t *testing.T) {
	nodes, edges, err := domain.DecodeGraph(
		[]byte(`[{"id": "a", "label": "A"}, {"id": "b"}]`),
		[]byte(`[{"source": "a", "target": "b"}]`),
	)
	require.NoError(t, err)
	assert.Equal(t, []domain.Node{{ID: "a", Label: "A"}, {ID: "b"}}, nodes)
	assert.Equal(t, []domain.Edge{{Source: "a", Target: "b"}}, edges)

	nodes, edges, err = domain.DecodeGraph([]byte(`[]`), []byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, nodes)
	assert.NotNil(t, edges)
}

func TestDecodeGraph_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		nodes string
		edges string
		want  []string
	}{
		{
			name:  "Absent Lists",
			nodes: "",
			edges: "null",
			want:  []string{"nodes: field required", "edges: field required"},
		},
		{
			name:  "Node Without ID",
			nodes: `[{"id": "a"}, {"label": "no id"}]`,
			edges: `[]`,
			want:  []string{"nodes.1.id: field required"},
		},
		{
			name:  "Null ID",
			nodes: `[{"id": null}]`,
			edges: `[]`,
			want:  []string{"nodes.0.id: field required"},
		},
		{
			name:  "Edge Without Endpoints",
			nodes: `[{"label": "x"}]`,
			edges: `[{"source": "a"}, {}]`,
			want: []string{
				"nodes.0.id: field required",
				"edges.0.target: field required",
				"edges.1.source: field required",
				"edges.1.target: field required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := domain.DecodeGraph([]byte(tt.nodes), []byte(tt.edges))
			assert.ErrorIs(t, err, domain.ErrInvalidFlowchart)
			assert.ErrorIs(t, err, domain.ErrMissingField)
			assert.Equal(t, tt.want, domain.ValidationDetails(err))
		})
	}
}

func TestDecodeGraph_Malformed(t *testing.T) {
	_, _, err := domain.DecodeGraph([]byte(`{"id": "a"}`), []byte(`[]`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidFlowchart)
	assert.Contains(t, err.Error(), "nodes: invalid JSON array")

	_, _, err = domain.DecodeGraph([]byte(`[]`), []byte(`["a"]`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidFlowchart)
	assert.Contains(t, err.Error(), "edges.0")

	_, _, err = domain.DecodeGraph([]byte(`[{"id": 5}]`), []byte(`[]`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidFlowchart)
}
