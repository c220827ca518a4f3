package flowcharts_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/flowcharts"
	"github.com/aretw0/flowcharts/pkg/domain"
)

func ExampleManager() {
	ctx := context.Background()
	m := flowcharts.New()

	id, _ := m.Create(ctx,
		[]domain.Node{{ID: "a", Label: "Start"}, {ID: "b"}, {ID: "c", Label: "End"}},
		[]domain.Edge{{Source: "a", Target: "b"}, {Source: "c", Target: "b"}},
	)

	out, _ := m.OutgoingEdges(ctx, id, "a")
	fmt.Println(out)

	connected, _ := m.ConnectedNodes(ctx, id, "a")
	fmt.Println(connected)

	_, err := m.Replace(ctx, id, []domain.Node{{ID: "a"}}, []domain.Edge{{Source: "a", Target: "z"}})
	fmt.Println(errors.Is(err, domain.ErrDanglingReference))
	// Output:
	// [{a b}]
	// [a b c]
	// true
}
