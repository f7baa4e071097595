package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
)

// Cytoscape elements format: https://js.cytoscape.org/#notation/elements-json

type cytoNodeData struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type,omitempty"`
}

type cytoEdgeData struct {
	ID         string  `json:"id"`
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Label      string  `json:"label"`
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
}

type cytoElement struct {
	Data any `json:"data"`
}

type cytoDoc struct {
	Elements struct {
		Nodes []cytoElement `json:"nodes"`
		Edges []cytoElement `json:"edges"`
	} `json:"elements"`
}

// Cytoscape renders the graph as Cytoscape.js elements JSON.
func (g *Graph) Cytoscape() ([]byte, error) {
	var doc cytoDoc
	doc.Elements.Nodes = []cytoElement{}
	doc.Elements.Edges = []cytoElement{}

	seen := make(map[string]bool)
	for _, n := range g.Nodes() {
		id := fold(n.Name)
		seen[id] = true
		doc.Elements.Nodes = append(doc.Elements.Nodes, cytoElement{
			Data: cytoNodeData{ID: id, Label: n.Name, Type: n.Type},
		})
	}

	// Cytoscape rejects edges with unknown endpoints, so any endpoint that
	// never appeared as an entity gets a bare node.
	for _, e := range g.Edges() {
		for _, name := range []string{e.Source, e.Target} {
			id := fold(name)
			if !seen[id] {
				seen[id] = true
				doc.Elements.Nodes = append(doc.Elements.Nodes, cytoElement{
					Data: cytoNodeData{ID: id, Label: name},
				})
			}
		}
	}

	for i, e := range g.Edges() {
		doc.Elements.Edges = append(doc.Elements.Edges, cytoElement{
			Data: cytoEdgeData{
				ID:         fmt.Sprintf("e%d", i),
				Source:     fold(e.Source),
				Target:     fold(e.Target),
				Label:      e.Rel,
				Kind:       string(e.Kind),
				Confidence: e.Confidence,
			},
		})
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "graph: marshal cytoscape")
	}
	return out, nil
}

// WriteCytoscape writes the Cytoscape JSON to path.
func (g *Graph) WriteCytoscape(path string) error {
	data, err := g.Cytoscape()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "graph: write %s", path)
	}
	return nil
}
