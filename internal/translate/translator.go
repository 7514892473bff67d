// Package translate converts a Japanese evaluation manifest to English.
// Risk categories and object names go through fixed glossaries; free-text
// reasons are sent to an LLM and cached.
package translate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/riskform/internal/cache"
	"github.com/ppiankov/riskform/internal/llm"
	"github.com/ppiankov/riskform/internal/worker"
)

const targetLanguage = "English"

// Stats counts what happened to the translatable values of one document
type Stats struct {
	Glossary   int // judge and object values replaced from a glossary
	Reasons    int // distinct Japanese reasons found
	Cached     int // reasons served from the cache
	Translated int // reasons translated by the LLM
	Failed     int // reasons kept because the LLM call failed
	Kept       int // reasons kept because no provider is configured
}

// Translator rewrites manifest documents
type Translator struct {
	provider llm.Provider
	cache    cache.Cache
	logger   *zap.Logger
	workers  int
	judge    map[string]string
	object   map[string]string
}

// Option configures a Translator
type Option func(*Translator)

// WithWorkers sets how many reasons are translated concurrently
func WithWorkers(n int) Option {
	return func(t *Translator) { t.workers = n }
}

// WithGlossaries replaces the built-in judge and object glossaries
func WithGlossaries(judge, object map[string]string) Option {
	return func(t *Translator) {
		t.judge = judge
		t.object = object
	}
}

// New creates a translator. provider may be nil, in which case reasons are
// left untranslated.
func New(provider llm.Provider, c cache.Cache, logger *zap.Logger, opts ...Option) *Translator {
	if c == nil {
		c = cache.Nop{}
	}
	t := &Translator{
		provider: provider,
		cache:    c,
		logger:   logger,
		workers:  4,
		judge:    JudgeGlossary,
		object:   ObjectGlossary,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TranslateManifest returns the translated document as indented JSON
func (t *Translator) TranslateManifest(ctx context.Context, raw []byte) ([]byte, error) {
	out, stats, err := t.Translate(ctx, raw)
	if err != nil {
		return nil, err
	}

	t.logger.Info("Manifest translated",
		zap.Int("glossary", stats.Glossary),
		zap.Int("reasons", stats.Reasons),
		zap.Int("cached", stats.Cached),
		zap.Int("translated", stats.Translated),
		zap.Int("failed", stats.Failed),
		zap.Int("kept", stats.Kept))

	if tiered, ok := t.cache.(interface{ Stats() cache.TierStats }); ok {
		tiers := tiered.Stats()
		t.logger.Debug("Cache lookups",
			zap.Int64("memory", tiers.Memory),
			zap.Int64("disk", tiers.Disk),
			zap.Int64("misses", tiers.Misses),
			zap.Int("memory_entries", tiers.MemoryEntries))
	}

	return out, nil
}

// Translate is TranslateManifest with the per-document counts
func (t *Translator) Translate(ctx context.Context, raw []byte) ([]byte, Stats, error) {
	var stats Stats

	doc, err := decodeOrdered(raw)
	if err != nil {
		return nil, stats, fmt.Errorf("decode manifest: %w", err)
	}

	reasons := make(map[string][]slot)
	var order []string
	t.walk(doc, &stats, func(s slot, text string) {
		if _, seen := reasons[text]; !seen {
			order = append(order, text)
		}
		reasons[text] = append(reasons[text], s)
	})
	stats.Reasons = len(order)

	translations, err := t.translateReasons(ctx, order, &stats)
	if err != nil {
		return nil, stats, err
	}
	for text, translated := range translations {
		for _, s := range reasons[text] {
			s.set(translated)
		}
	}

	out, err := encodeIndented(doc)
	if err != nil {
		return nil, stats, fmt.Errorf("encode manifest: %w", err)
	}
	return out, stats, nil
}

// slot addresses one member value inside a decoded object
type slot struct {
	obj   object
	index int
}

func (s slot) set(v string) { s.obj[s.index].value = v }

// walk applies the glossaries in place and reports Japanese reasons
func (t *Translator) walk(v any, stats *Stats, reason func(slot, string)) {
	switch v := v.(type) {
	case object:
		for i := range v {
			f := &v[i]
			text, isString := f.value.(string)

			switch {
			case isString && judgeFields[f.key]:
				if tr, ok := t.judge[text]; ok {
					f.value = tr
					stats.Glossary++
				}
			case isString && objectFields[f.key]:
				if tr, ok := t.object[text]; ok {
					f.value = tr
					stats.Glossary++
				}
			case isString && reasonFields[f.key]:
				if ContainsJapanese(text) {
					reason(slot{obj: v, index: i}, text)
				}
			default:
				t.walk(f.value, stats, reason)
			}
		}
	case []any:
		for _, e := range v {
			t.walk(e, stats, reason)
		}
	}
}

func (t *Translator) cacheKey(text string) string {
	return cache.Key("translate", t.provider.Name(), targetLanguage, text)
}

// translateReasons returns translations for the texts it could translate
func (t *Translator) translateReasons(ctx context.Context, texts []string, stats *Stats) (map[string]string, error) {
	out := make(map[string]string, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	if t.provider == nil {
		stats.Kept = len(texts)
		t.logger.Warn("No LLM provider configured, Japanese reasons are kept as is",
			zap.Int("reasons", len(texts)))
		return out, nil
	}

	var jobs []worker.Job
	for _, text := range texts {
		if cached, ok := t.cache.Get(t.cacheKey(text)); ok {
			out[text] = string(cached)
			stats.Cached++
			continue
		}
		jobs = append(jobs, &reasonJob{provider: t.provider, text: text})
	}

	t.logger.Debug("Translating reasons",
		zap.String("provider", t.provider.Name()),
		zap.Int("cached", stats.Cached),
		zap.Int("to_translate", len(jobs)),
		zap.Int("workers", t.workers))

	for i, r := range worker.RunAll(ctx, t.workers, jobs) {
		job := jobs[i].(*reasonJob)
		if err := r.GetError(); err != nil {
			stats.Failed++
			t.logger.Warn("Reason translation failed, keeping the original",
				zap.String("text", truncate(job.text, 40)),
				zap.Error(err))
			continue
		}

		translated := r.(*reasonResult).text
		out[job.text] = translated
		stats.Translated++

		if err := t.cache.Set(t.cacheKey(job.text), []byte(translated), 0); err != nil {
			t.logger.Warn("Failed to cache translation", zap.Error(err))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("translation cancelled: %w", err)
	}
	return out, nil
}

type reasonJob struct {
	provider llm.Provider
	text     string
}

type reasonResult struct {
	text string
	err  error
}

func (r *reasonResult) GetError() error { return r.err }

func (j *reasonJob) Execute(ctx context.Context) worker.Result {
	resp, err := j.provider.Translate(ctx, llm.TranslateRequest{
		Text:           j.text,
		SourceLanguage: "Japanese",
		TargetLanguage: targetLanguage,
	})
	if err != nil {
		return &reasonResult{err: err}
	}
	return &reasonResult{text: resp.Text}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
