/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing flowcharts.

It allows developers to define flowcharts using a fluent builder pattern instead of
writing node and edge slices by hand. This is particularly useful for tests and
for generating flowcharts in code.

Example usage:

	b := dsl.New()

	b.Add("start").
		Label("Start").
		Go("review")

	b.Add("review").
		Label("Review").
		Go("done", "start")

	b.Add("done")

	fc, err := b.Build()
	if err != nil {
		// dangling edges or duplicate nodes
	}
	id, err := manager.Create(ctx, fc.Nodes, fc.Edges)
*/
package dsl
