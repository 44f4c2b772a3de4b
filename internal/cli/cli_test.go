package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const assessmentYAML = `
id: sleep
questions:
  - id: hours
    text: Hours slept
    type: numeric
    min: 0
    max: 24
  - id: naps
    text: Did you nap?
    type: boolean
    showIf: {questionId: hours, equals: 4}
scoringRules:
  type: sum
  items: [hours, naps]
  bands:
    - {min: 0, max: 5, label: short}
    - {min: 6, max: 30, label: enough}
`

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", assessmentYAML)
	bad := writeFile(t, dir, "bad.json", `{"questions":[{"id":"a","text":"A","type":"text","showIf":{"questionId":"a","equals":"x"}}]}`)

	out, err := run(t, "validate", good)
	if err != nil {
		t.Fatalf("validate good: %v", err)
	}
	if !strings.Contains(out, `"valid": true`) {
		t.Fatalf("expected valid report, got %s", out)
	}

	out, err = run(t, "validate", bad)
	if err == nil {
		t.Fatalf("expected error for cyclic schema")
	}
	if !strings.Contains(out, "circular showIf dependency: a → a") {
		t.Fatalf("expected cycle in report, got %s", out)
	}
}

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	assessment := writeFile(t, dir, "sleep.yml", assessmentYAML)
	answers := writeFile(t, dir, "answers.json", `{"hours": 4, "naps": true}`)

	out, err := run(t, "score", assessment, answers)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var result struct {
		Score float64 `json:"score"`
		Band  string  `json:"band"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if result.Score != 5 || result.Band != "short" {
		t.Fatalf("expected 5 (short), got %v (%s)", result.Score, result.Band)
	}

	// naps is hidden unless hours is 4, so its answer is dropped.
	hidden := writeFile(t, dir, "hidden.json", `{"hours": 7, "naps": true}`)
	out, err = run(t, "score", assessment, hidden)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Score != 7 || result.Band != "enough" {
		t.Fatalf("expected 7 (enough), got %v (%s)", result.Score, result.Band)
	}
}

func TestScoreCommandRejectsBadAnswers(t *testing.T) {
	dir := t.TempDir()
	assessment := writeFile(t, dir, "sleep.yaml", assessmentYAML)
	answers := writeFile(t, dir, "answers.json", `[1,2]`)

	if _, err := run(t, "score", assessment, answers); err == nil {
		t.Fatalf("expected error for non-object answers")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
