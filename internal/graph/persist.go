package graph

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// graphDoc is the on-disk form of a Graph.
type graphDoc struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Save writes the graph as JSON. Pairs with Load for accumulation across
// daily runs.
func (g *Graph) Save(path string) error {
	doc := graphDoc{Nodes: g.Nodes(), Edges: g.Edges()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "graph: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "graph: write %s", path)
	}
	return nil
}

// Load reads a previously saved graph. A missing file yields an empty graph.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, eris.Wrapf(err, "graph: read %s", path)
	}

	var doc graphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "graph: decode %s", path)
	}

	g := New()
	for _, n := range doc.Nodes {
		key := fold(n.Name)
		if key == "" {
			continue
		}
		node := n
		g.nodes[key] = &node
	}
	g.edges = doc.Edges
	return g, nil
}
