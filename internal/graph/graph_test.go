package graph

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphdesk/newsgraph/internal/model"
)

func TestMerge_CaseFoldEntities(t *testing.T) {
	g := New()

	g.Merge(&model.Extraction{
		DocID:    "d1",
		Entities: []model.Entity{{Name: "OpenAI", Type: "org"}},
	})
	g.Merge(&model.Extraction{
		DocID:    "d2",
		Entities: []model.Entity{{Name: "openai"}, {Name: "OPENAI", Aliases: []string{"Open AI Inc"}}},
	})

	nodes := g.Nodes()
	require.Len(t, nodes, 1)
	// First-seen casing wins, later variants become aliases.
	assert.Equal(t, "OpenAI", nodes[0].Name)
	assert.Equal(t, "org", nodes[0].Type)
	assert.Contains(t, nodes[0].Aliases, "openai")
	assert.Contains(t, nodes[0].Aliases, "OPENAI")
	assert.Contains(t, nodes[0].Aliases, "Open AI Inc")
	assert.ElementsMatch(t, []string{"d1", "d2"}, nodes[0].Docs)
}

func TestMerge_RelationsCanonicalize(t *testing.T) {
	g := New()
	g.Merge(&model.Extraction{
		DocID:    "d1",
		Entities: []model.Entity{{Name: "OpenAI"}, {Name: "GPT-5"}},
		Relations: []model.Relation{
			{Source: "openai", Rel: "ANNOUNCED", Target: "gpt-5", Kind: model.KindAsserted, Confidence: 0.9},
		},
	})

	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "OpenAI", edges[0].Source)
	assert.Equal(t, "GPT-5", edges[0].Target)
}

func TestMerge_NilAndEmpty(t *testing.T) {
	g := New()
	g.Merge(nil)
	g.Merge(&model.Extraction{DocID: "d1"})
	assert.Empty(t, g.Nodes())
	assert.Empty(t, g.Edges())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")

	g := New()
	g.Merge(&model.Extraction{
		DocID:    "d1",
		Entities: []model.Entity{{Name: "OpenAI", Type: "org"}, {Name: "GPT-5", Type: "product"}},
		Relations: []model.Relation{
			{Source: "OpenAI", Rel: "ANNOUNCED", Target: "GPT-5", Kind: model.KindAsserted, Confidence: 0.9},
		},
	})
	require.NoError(t, g.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Nodes(), 2)
	assert.Len(t, loaded.Edges(), 1)

	// Accumulation continues across loads.
	loaded.Merge(&model.Extraction{
		DocID:    "d2",
		Entities: []model.Entity{{Name: "openai"}, {Name: "Anthropic", Type: "org"}},
	})
	assert.Len(t, loaded.Nodes(), 3)
}

func TestLoad_MissingFileIsEmptyGraph(t *testing.T) {
	g, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, g.Nodes())
}

func TestCytoscape_Shape(t *testing.T) {
	g := New()
	g.Merge(&model.Extraction{
		DocID:    "d1",
		Entities: []model.Entity{{Name: "OpenAI", Type: "org"}},
		Relations: []model.Relation{
			// Target was never declared as an entity; export must still emit
			// a node for it.
			{Source: "OpenAI", Rel: "ANNOUNCED", Target: "GPT-5", Kind: model.KindAsserted, Confidence: 0.9},
		},
	})

	data, err := g.Cytoscape()
	require.NoError(t, err)

	var doc struct {
		Elements struct {
			Nodes []struct {
				Data struct {
					ID    string `json:"id"`
					Label string `json:"label"`
				} `json:"data"`
			} `json:"nodes"`
			Edges []struct {
				Data struct {
					Source string `json:"source"`
					Target string `json:"target"`
					Label  string `json:"label"`
				} `json:"data"`
			} `json:"edges"`
		} `json:"elements"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	require.Len(t, doc.Elements.Nodes, 2)
	require.Len(t, doc.Elements.Edges, 1)
	assert.Equal(t, "openai", doc.Elements.Edges[0].Data.Source)
	assert.Equal(t, "gpt-5", doc.Elements.Edges[0].Data.Target)
	assert.Equal(t, "ANNOUNCED", doc.Elements.Edges[0].Data.Label)
}
