package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/riskform/internal/cache"
	"github.com/ppiankov/riskform/internal/llm"
	"github.com/ppiankov/riskform/internal/translate"
)

var (
	translateProvider string
	translateModel    string
	translateWorkers  int
	translateNoCache  bool
	translateGlossary string
)

// translateCmd represents the translate command
var translateCmd = &cobra.Command{
	Use:   "translate <in.json> [out.json]",
	Short: "Translate a Japanese manifest to English",
	Long: `Translate rewrites an evaluation manifest in English before it is uploaded:

- risk categories (risk_judge, updated_judge_01/02) and object names
  (object_name, landmark_name) come from fixed glossaries
- reasons (risk_reason, updated_reason_01/02) that contain Japanese are
  translated by the configured LLM, and the translations are cached
- everything else is kept, in its original key order

Without an LLM provider only the glossaries apply. --glossary adds or
overrides entries:

  judge:
    危険: Danger
  object:
    コンロ: Stove

 The input file is
overwritten when no output path is given.

Example:
  riskform translate manifest.json manifest_en.json
  riskform translate manifest.json --llm-provider gemini
  OPENAI_API_KEY=sk-... riskform translate manifest.json --llm-provider openai`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVar(&translateProvider, "llm-provider", "", "LLM provider for reasons (openai, gemini; default: llm.provider from config)")
	translateCmd.Flags().StringVar(&translateModel, "llm-model", "", "LLM model name (default: provider default)")
	translateCmd.Flags().IntVar(&translateWorkers, "workers", 0, "concurrent translation requests (default: llm.workers from config)")
	translateCmd.Flags().BoolVar(&translateNoCache, "no-cache", false, "disable the translation cache")
	translateCmd.Flags().StringVar(&translateGlossary, "glossary", "", "YAML file with extra judge: and object: entries")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	in := args[0]
	out := in
	if len(args) == 2 {
		out = args[1]
	}

	ctx, cancel := commandContext()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if translateProvider != "" {
		cfg.LLM.Provider = translateProvider
	}
	if translateModel != "" {
		cfg.LLM.Model = translateModel
	}
	if translateWorkers > 0 {
		cfg.LLM.Workers = translateWorkers
	}
	if translateNoCache {
		cfg.Cache.Enabled = false
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	if closer, ok := provider.(io.Closer); ok {
		defer func() {
			if cerr := closer.Close(); cerr != nil {
				logger.Warn("Failed to close LLM client", zap.Error(cerr))
			}
		}()
	}
	if provider == nil {
		fmt.Fprintf(os.Stderr, "⚙️  No LLM provider configured, applying glossaries only\n")
	} else {
		fmt.Fprintf(os.Stderr, "⚙️  Translating reasons with %s\n", provider.Name())
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", in, err)
	}

	opts := []translate.Option{translate.WithWorkers(cfg.LLM.Workers)}
	if translateGlossary != "" {
		judge, object, err := loadGlossaries(translateGlossary)
		if err != nil {
			return err
		}
		opts = append(opts, translate.WithGlossaries(judge, object))
	}

	tr := translate.New(provider, cache.New(cfg.Cache), logger, opts...)
	translated, err := tr.TranslateManifest(ctx, raw)
	if err != nil {
		logger.Error("Translation failed", zap.String("input", in), zap.Error(err))
		return fmt.Errorf("translate %s: %w", in, err)
	}

	if err := writeFileAtomic(out, translated); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Saved to: %s\n", out)
	return nil
}

// loadGlossaries merges a glossary file over the built-in glossaries
func loadGlossaries(path string) (judge, object map[string]string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading glossary: %w", err)
	}

	var file struct {
		Judge  map[string]string `yaml:"judge"`
		Object map[string]string `yaml:"object"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("invalid glossary %s: %w", path, err)
	}

	judge = maps.Clone(translate.JudgeGlossary)
	maps.Copy(judge, file.Judge)
	object = maps.Clone(translate.ObjectGlossary)
	maps.Copy(object, file.Object)
	return judge, object, nil
}

// writeFileAtomic replaces path so an interrupted run never leaves half a manifest
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".riskform-*.json")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing %s: %w", path, err)
	}
	return nil
}
