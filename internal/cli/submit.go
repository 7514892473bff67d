package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/host/local"
	"github.com/ppiankov/riskform/internal/model"
)

var submitFormID string

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit <answers.yaml>",
	Short: "Record a response in the local backend",
	Long: `Submit records one participant's answers in a form held by the local backend,
so the build, link and export steps can be exercised without a hosted account.

The answers file names the participant and maps question titles to answers.
A choice answer may be given as its number:

  name: Taro
  email: taro@example.com
  answers:
    "[item 0] Agent N - agreement": "5 - Strongly agree"
    "[item 0] Agent N - depth": 4

Example:
  riskform submit --backend local --form-id 6f1c... answers.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(&submitFormID, "form-id", "", "form id (default: look up form.title)")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("error reading %s: %w", args[0], err)
	}
	sheet, err := parseAnswerSheet(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	ctx, cancel := commandContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if s.store == nil {
		return fmt.Errorf("submit needs the local backend, %s responses are collected by the form itself", s.backend.Name)
	}

	form, err := host.ResolveForm(ctx, s.store, submitFormID, s.cfg.Form.Title)
	if err != nil {
		return s.fail("submit failed", err)
	}

	items, err := s.store.Items(ctx, form.ID)
	if err != nil {
		return s.fail("submit failed", err)
	}

	answers, err := sheet.resolve(items, s.cfg.Form)
	if err != nil {
		return s.fail("submit failed", err)
	}

	sub, err := s.store.Submit(ctx, form.ID, answers)
	if err != nil {
		return s.fail("submit failed", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Response %s recorded for %q (%d answers)\n", sub.ID, sheet.Name, len(sub.Answers))
	return nil
}

// answerSheet is a participant's answers in file order
type answerSheet struct {
	Name    string
	Email   string
	Answers []model.Answer
}

func parseAnswerSheet(data []byte) (*answerSheet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("answers file must be a mapping")
	}

	sheet := &answerSheet{}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "name":
			sheet.Name = strings.TrimSpace(val.Value)
		case "email":
			sheet.Email = strings.TrimSpace(val.Value)
		case "answers":
			if val.Kind != yaml.MappingNode {
				return nil, errors.New("answers must map question titles to answers")
			}
			// Mapping nodes keep document order but allow repeated keys
			seen := make(map[string]bool, len(val.Content)/2)
			for j := 0; j+1 < len(val.Content); j += 2 {
				title := val.Content[j]
				if seen[title.Value] {
					return nil, fmt.Errorf("question %q answered twice (line %d)", title.Value, title.Line)
				}
				seen[title.Value] = true
				sheet.Answers = append(sheet.Answers, model.Answer{
					Title: title.Value,
					Value: val.Content[j+1].Value,
				})
			}
		default:
			return nil, fmt.Errorf("unknown key %q (line %d)", key.Value, key.Line)
		}
	}

	if sheet.Name == "" {
		return nil, errors.New("name is required")
	}
	return sheet, nil
}

// resolve prepends the identity answers and expands numbered choices
func (a *answerSheet) resolve(items []local.FormItem, labels model.FormConfig) ([]model.Answer, error) {
	byTitle := make(map[string]local.FormItem, len(items))
	for _, it := range items {
		byTitle[it.Title] = it
	}

	answers := []model.Answer{{Title: labels.NameLabel, Value: a.Name}}
	if a.Email != "" {
		answers = append(answers, model.Answer{Title: labels.EmailLabel, Value: a.Email})
	}

	for _, ans := range a.Answers {
		it, ok := byTitle[ans.Title]
		if !ok || len(it.Choices) == 0 {
			answers = append(answers, ans)
			continue
		}

		value, err := choose(it.Choices, ans.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ans.Title, err)
		}
		answers = append(answers, model.Answer{Title: ans.Title, Value: value})
	}
	return answers, nil
}

// choose accepts a choice label or its 1-based number
func choose(choices []string, value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, c := range choices {
		if c == value {
			return c, nil
		}
	}
	if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1], nil
	}
	return "", fmt.Errorf("%q is not one of %d choices", value, len(choices))
}
