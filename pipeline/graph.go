package pipeline

import (
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// Graph writes the enabled stage sequence as a DOT digraph, an inspection
// artifact for run configurations.
func (o *Orchestrator) Graph(w io.Writer) error {
	g := graph.New(graph.StringHash, graph.Directed())
	for i, stage := range o.stages {
		attrs := []func(*graph.VertexProperties){
			graph.VertexAttribute("shape", "box"),
			graph.VertexAttribute("label", fmt.Sprintf("%d. %s", i+1, stage.Name())),
		}
		if err := g.AddVertex(stage.Name(), attrs...); err != nil {
			return fmt.Errorf("add stage %s: %w", stage.Name(), err)
		}
	}
	for i := 1; i < len(o.stages); i++ {
		if err := g.AddEdge(o.stages[i-1].Name(), o.stages[i].Name()); err != nil {
			return fmt.Errorf("link %s -> %s: %w", o.stages[i-1].Name(), o.stages[i].Name(), err)
		}
	}
	if err := draw.DOT(g, w); err != nil {
		return fmt.Errorf("render stage graph: %w", err)
	}
	return nil
}
