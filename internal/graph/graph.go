// Package graph accumulates accepted extractions into a single knowledge
// graph. Entities merge case-insensitively by name; relations accumulate
// as-is with their evidence.
package graph

import (
	"sort"
	"strings"

	"github.com/graphdesk/newsgraph/internal/model"
)

// Node is a merged entity. Name keeps the casing of the first mention;
// aliases collect every other surface form seen.
type Node struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Aliases []string `json:"aliases,omitempty"`
	Docs    []string `json:"docs,omitempty"`
}

// Edge is one accumulated relation between two merged nodes.
type Edge struct {
	Source     string             `json:"source"`
	Rel        string             `json:"rel"`
	Target     string             `json:"target"`
	Kind       model.RelationKind `json:"kind"`
	Confidence float64            `json:"confidence"`
	Evidence   []model.Evidence   `json:"evidence,omitempty"`
}

// Graph is the accumulated knowledge graph for a run (or across runs when
// loaded from disk and merged again).
type Graph struct {
	nodes map[string]*Node // key: folded name
	edges []Edge
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Merge folds one extraction into the graph.
func (g *Graph) Merge(ex *model.Extraction) {
	if ex == nil {
		return
	}

	for _, ent := range ex.Entities {
		g.mergeEntity(ent, ex.DocID)
	}

	for _, rel := range ex.Relations {
		g.edges = append(g.edges, Edge{
			Source:     g.canonicalName(rel.Source),
			Rel:        rel.Rel,
			Target:     g.canonicalName(rel.Target),
			Kind:       rel.Kind,
			Confidence: rel.Confidence,
			Evidence:   rel.Evidence,
		})
	}
}

func (g *Graph) mergeEntity(ent model.Entity, docID string) {
	key := fold(ent.Name)
	if key == "" {
		return
	}

	node, ok := g.nodes[key]
	if !ok {
		node = &Node{Name: ent.Name, Type: ent.Type}
		g.nodes[key] = node
	}
	if node.Type == "" {
		node.Type = ent.Type
	}

	// First-seen casing wins; later variants become aliases.
	if ent.Name != node.Name {
		node.Aliases = appendUnique(node.Aliases, ent.Name)
	}
	for _, a := range ent.Aliases {
		if fold(a) != key || a != node.Name {
			node.Aliases = appendUnique(node.Aliases, a)
		}
	}
	if docID != "" {
		node.Docs = appendUnique(node.Docs, docID)
	}
}

// canonicalName maps a relation endpoint to the merged node's name when one
// exists, so edges connect after case-fold merging.
func (g *Graph) canonicalName(name string) string {
	if node, ok := g.nodes[fold(name)]; ok {
		return node.Name
	}
	return name
}

// Nodes returns the merged nodes sorted by name.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Edges returns the accumulated edges in insertion order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func appendUnique(xs []string, x string) []string {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}
