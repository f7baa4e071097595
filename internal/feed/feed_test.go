package feed

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphdesk/newsgraph/internal/config"
	"github.com/graphdesk/newsgraph/internal/model"
)

func TestStripHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"entities", "AT&amp;T &lt;3 &quot;quotes&quot;", `AT&T <3 "quotes"`},
		{"nbsp and unknown", "a&nbsp;b&mdash;c", "a b c"},
		{"whitespace collapse", "  a \n\n b\t c  ", "a b c"},
		{"plain text untouched", "just words", "just words"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripHTML(tc.in))
		})
	}
}

func TestDocID_StableAndDistinct(t *testing.T) {
	a := docID("https://example.com/a", "Title A")
	assert.Equal(t, a, docID("https://example.com/a", "different title"))
	assert.NotEqual(t, a, docID("https://example.com/b", "Title A"))

	// Falls back to the title when the link is missing.
	byTitle := docID("", "Title A")
	assert.Equal(t, byTitle, docID("", "Title A"))
	assert.NotEqual(t, a, byTitle)
	assert.Len(t, a, 16)
}

func TestTierAndSignalMaps(t *testing.T) {
	feeds := []config.FeedConfig{
		{Name: "wire", Tier: 1, Signal: "primary"},
		{Name: "blog", Tier: 2, Signal: "commentary"},
	}

	tiers := TierMap(feeds)
	assert.Equal(t, 1, tiers["wire"])
	assert.Equal(t, 2, tiers["blog"])

	signals := SignalMap(feeds)
	assert.Equal(t, model.SignalPrimary, signals["wire"])
	assert.Equal(t, model.SignalCommentary, signals["blog"])
}

// stubFetcher returns fixed documents per feed name.
type stubFetcher struct {
	docs map[string][]model.Document
	errs map[string]error
}

func (s *stubFetcher) Fetch(_ context.Context, fc config.FeedConfig) ([]model.Document, error) {
	if err := s.errs[fc.Name]; err != nil {
		return nil, err
	}
	return s.docs[fc.Name], nil
}

func TestFetchAll_FailingFeedIsSkipped(t *testing.T) {
	fetcher := &stubFetcher{
		docs: map[string][]model.Document{
			"good": {{DocID: "a", Source: "good"}, {DocID: "b", Source: "good"}},
		},
		errs: map[string]error{
			"broken": eris.New("connection refused"),
		},
	}
	feeds := []config.FeedConfig{{Name: "good"}, {Name: "broken"}}

	docs := FetchAll(context.Background(), fetcher, feeds)
	require.Len(t, docs, 2)
	for _, d := range docs {
		assert.Equal(t, "good", d.Source)
	}
}

func TestFetchAll_Empty(t *testing.T) {
	docs := FetchAll(context.Background(), &stubFetcher{}, nil)
	assert.Empty(t, docs)
}
