package translate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ppiankov/riskform/internal/cache"
	"github.com/ppiankov/riskform/internal/llm"
)

// fakeProvider translates by table lookup and counts calls
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int
	table map[string]string
	fail  map[string]bool
}

func newFakeProvider(table map[string]string) *fakeProvider {
	return &fakeProvider{calls: map[string]int{}, table: table, fail: map[string]bool{}}
}

func (p *fakeProvider) Name() string                         { return "fake" }
func (p *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *fakeProvider) Translate(ctx context.Context, req llm.TranslateRequest) (*llm.TranslateResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[req.Text]++
	if p.fail[req.Text] {
		return nil, errors.New("upstream error")
	}
	return &llm.TranslateResponse{Text: p.table[req.Text]}, nil
}

func (p *fakeProvider) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

const sample = `{
  "1": {
    "VLM": {
      "risk_judge": "潜在重大",
      "risk_reason": "包丁が台の端にある。",
      "object_name": "包丁",
      "score": 4
    },
    "Semantic_state": {
      "risk_judge": "安全",
      "risk_reason": "Already in English.",
      "updated_judge_01": "未知の区分",
      "updated_reason_01": "包丁が台の端にある。",
      "details": [{"landmark_name": "洗面台", "note": "<b>&</b>"}]
    }
  },
  "0": {}
}`

func decodeMap(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestTranslate(t *testing.T) {
	provider := newFakeProvider(map[string]string{
		"包丁が台の端にある。": "A knife is at the edge of the counter.",
	})

	out, stats, err := New(provider, nil, zaptest.NewLogger(t)).Translate(context.Background(), []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, Stats{Glossary: 4, Reasons: 1, Translated: 1}, stats)
	assert.Equal(t, 1, provider.total(), "identical reasons are translated once")

	m := decodeMap(t, out)
	vlm := m["1"].(map[string]any)["VLM"].(map[string]any)
	assert.Equal(t, "Potential Major", vlm["risk_judge"])
	assert.Equal(t, "Knife", vlm["object_name"])
	assert.Equal(t, "A knife is at the edge of the counter.", vlm["risk_reason"])
	assert.Equal(t, float64(4), vlm["score"])

	sem := m["1"].(map[string]any)["Semantic_state"].(map[string]any)
	assert.Equal(t, "Safe", sem["risk_judge"])
	assert.Equal(t, "Already in English.", sem["risk_reason"])
	assert.Equal(t, "未知の区分", sem["updated_judge_01"], "unknown categories are kept")
	assert.Equal(t, "A knife is at the edge of the counter.", sem["updated_reason_01"])

	detail := sem["details"].([]any)[0].(map[string]any)
	assert.Equal(t, "Sink/Vanity", detail["landmark_name"])
	assert.Equal(t, "<b>&</b>", detail["note"])
}

func TestTranslateKeepsOrderAndFormatting(t *testing.T) {
	in := `{"b": {"risk_judge": "安全"}, "a": [1, 2.50, true, null], "c": "<日本>"}`

	out, _, err := New(nil, nil, zaptest.NewLogger(t)).Translate(context.Background(), []byte(in))
	require.NoError(t, err)

	want := `{
  "b": {
    "risk_judge": "Safe"
  },
  "a": [
    1,
    2.50,
    true,
    null
  ],
  "c": "<日本>"
}
`
	assert.Equal(t, want, string(out))
}

func TestTranslateWithoutProvider(t *testing.T) {
	out, stats, err := New(nil, nil, zaptest.NewLogger(t)).Translate(context.Background(), []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Kept)
	assert.Zero(t, stats.Translated)
	assert.Contains(t, string(out), "包丁が台の端にある。")
	assert.Contains(t, string(out), "Potential Major", "glossaries apply without a provider")
}

func TestTranslateUsesCache(t *testing.T) {
	c := cache.NewMemoryCache(0, 0)
	provider := newFakeProvider(map[string]string{
		"包丁が台の端にある。": "A knife is at the edge of the counter.",
	})
	tr := New(provider, c, zaptest.NewLogger(t))

	_, first, err := tr.Translate(context.Background(), []byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Translated)

	out, second, err := tr.Translate(context.Background(), []byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 1, second.Cached)
	assert.Zero(t, second.Translated)
	assert.Equal(t, 1, provider.total(), "second run is served from the cache")
	assert.Contains(t, string(out), "A knife is at the edge of the counter.")
}

func TestTranslateProviderFailure(t *testing.T) {
	provider := newFakeProvider(map[string]string{"ハサミがある。": "There are scissors."})
	provider.fail["包丁が台の端にある。"] = true

	in := `{"x": {"risk_reason": "包丁が台の端にある。"}, "y": {"risk_reason": "ハサミがある。"}}`
	out, stats, err := New(provider, nil, zaptest.NewLogger(t), WithWorkers(2)).Translate(context.Background(), []byte(in))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Translated)
	assert.Contains(t, string(out), "包丁が台の端にある。")
	assert.Contains(t, string(out), "There are scissors.")
}

func TestTranslateInvalidJSON(t *testing.T) {
	tr := New(nil, nil, zaptest.NewLogger(t))

	_, err := tr.TranslateManifest(context.Background(), []byte(`{"a": `))
	assert.Error(t, err)

	_, err = tr.TranslateManifest(context.Background(), []byte(`{} {}`))
	assert.Error(t, err)
}

func TestWithGlossaries(t *testing.T) {
	tr := New(nil, nil, zaptest.NewLogger(t), WithGlossaries(
		map[string]string{"危険": "Danger"},
		map[string]string{},
	))

	out, err := tr.TranslateManifest(context.Background(), []byte(`{"risk_judge": "危険", "object_name": "包丁"}`))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"Danger"`)
	assert.Contains(t, string(out), `"包丁"`)
}

func TestContainsJapanese(t *testing.T) {
	assert.True(t, ContainsJapanese("ひらがな"))
	assert.True(t, ContainsJapanese("カタカナ"))
	assert.True(t, ContainsJapanese("Knife 包丁"))
	assert.False(t, ContainsJapanese("Knife"))
	assert.False(t, ContainsJapanese("（）、。"))
	assert.False(t, ContainsJapanese(""))
}
