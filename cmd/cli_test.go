package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/catprofile/internal/parser"
)

const shirtsCSV = `color,size,answer
red,S,yes
red,M,no
blue,S,yes
blue,L,no
green,M,yes
green,L,null
red,S,yes
blue,M,no
`

// resetFlags restores every flag to its default so invocations do not leak
// values or Changed state into each other.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args and return stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func execCmd(args ...string) (string, error) {
	resetFlags(rootCmd)
	cfg = nil
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCLI_ProfileCSVWritesHTML(t *testing.T) {
	home := isolate(t)
	src := filepath.Join(home, "shirts.csv")
	writeFile(t, src, shirtsCSV)
	outDir := filepath.Join(home, "out")

	out := runCmd(t, "profile", src, "-o", outDir)

	path := filepath.Join(outDir, "shirts.html")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected report at %s: %v", path, err)
	}
	if !strings.Contains(string(b), "<html") || !strings.Contains(string(b), "shirts") {
		t.Fatalf("report does not look like an html report for shirts")
	}
	for _, want := range []string{
		"Progress 2/6: Preparing attribute profiles...",
		"Progress 6/6: Report finished...",
		"✓ Wrote default report to " + path,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_ProfileInteractiveJSON(t *testing.T) {
	home := isolate(t)
	src := filepath.Join(home, "shirts.csv")
	writeFile(t, src, shirtsCSV)
	outDir := filepath.Join(home, "out")

	out := runCmd(t, "profile", src, "-o", outDir, "--mode", "interactive", "--format", "json", "--name", "Shirt Survey", "--quiet")
	if strings.Contains(out, "Progress") {
		t.Fatalf("--quiet should suppress progress:\n%s", out)
	}

	b, err := os.ReadFile(filepath.Join(outDir, "shirt survey.json"))
	if err != nil {
		t.Fatalf("read json report: %v", err)
	}
	var got struct {
		Title           string   `json:"title"`
		RecordsCount    int      `json:"records_count"`
		MissingCount    int      `json:"missing_count"`
		CorrelationKeys []string `json:"correlation_keys"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Title != "Shirt Survey" || got.RecordsCount != 8 {
		t.Fatalf("unexpected header: %+v", got)
	}
	// auto preparation is on for interactive runs, so "null" becomes missing
	if got.MissingCount != 1 {
		t.Fatalf("missing_count = %d, want 1", got.MissingCount)
	}
	// overall + 3x3 ordered pairs
	if len(got.CorrelationKeys) != 10 {
		t.Fatalf("correlation keys = %v", got.CorrelationKeys)
	}
}

func TestCLI_ProfileRejectsBadFlags(t *testing.T) {
	home := isolate(t)
	src := filepath.Join(home, "shirts.csv")
	writeFile(t, src, shirtsCSV)

	cases := [][]string{
		{"profile", src, "--mode", "pivot"},
		{"profile", src, "--format", "pdf"},
		{"profile", src, "--cat-limit", "0"},
		{"profile", src, "--delimiter", "ab"},
		{"profile", src, "--decimal", "x"},
		{"profile", filepath.Join(home, "missing.csv")},
	}
	for _, args := range cases {
		if _, err := execCmd(args...); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestCLI_ProfileBatch(t *testing.T) {
	home := isolate(t)
	dataDir := filepath.Join(home, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dataDir, "b.csv"), shirtsCSV)
	writeFile(t, filepath.Join(dataDir, "a.tsv"), strings.ReplaceAll(shirtsCSV, ",", "\t"))
	outDir := filepath.Join(home, "out")

	out := runCmd(t, "profile-batch", filepath.Join(dataDir, "*.csv"), filepath.Join(dataDir, "a.tsv"), filepath.Join(dataDir, "b.csv"), "-o", outDir, "--format", "markdown")

	if !strings.Contains(out, "[1/2] Processing a.tsv...") || !strings.Contains(out, "[2/2] Processing b.csv...") {
		t.Fatalf("unexpected batch progress:\n%s", out)
	}
	for _, name := range []string{"a.md", "b.md"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	if _, err := execCmd("profile-batch", filepath.Join(dataDir, "*.parquet")); err == nil {
		t.Fatalf("expected error when nothing matches")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolate(t)

	runCmd(t, "config", "set", "cat_limit", "5")
	runCmd(t, "config", "set", "missing_values", "n/a, unknown")
	runCmd(t, "config", "set", "report_dir", filepath.Join(home, "reports"))

	if _, err := os.Stat(filepath.Join(home, ".catprofile", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	for _, want := range []string{"cat_limit: 5", "missing_values: n/a,unknown", "report_dir: " + filepath.Join(home, "reports")} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}

	for _, args := range [][]string{
		{"config", "set", "cat_limit", "0"},
		{"config", "set", "metrics_backend", "statsd"},
		{"config", "set", "nope", "1"},
	} {
		if _, err := execCmd(args...); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}

	// report_dir from config is used when -o is not given
	src := filepath.Join(home, "shirts.csv")
	writeFile(t, src, shirtsCSV)
	runCmd(t, "profile", src, "--quiet")
	if _, err := os.Stat(filepath.Join(home, "reports", "shirts.html")); err != nil {
		t.Fatalf("expected report under configured report_dir: %v", err)
	}
}

func TestCLI_ProfileSQLite(t *testing.T) {
	home := isolate(t)
	ctx := context.Background()
	path := filepath.Join(home, "shop.db")
	db, err := parser.OpenSQL(ctx, "sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, s := range []string{
		`CREATE TABLE orders (status TEXT, channel TEXT)`,
		`INSERT INTO orders VALUES ('open','web'), ('closed','store'), ('open','store'), (NULL,'web')`,
	} {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	db.Close()
	outDir := filepath.Join(home, "out")

	runCmd(t, "profile", path, "--driver", "sqlite", "--table", "orders", "-o", outDir, "--format", "json", "--quiet")
	if _, err := os.Stat(filepath.Join(outDir, "orders.json")); err != nil {
		t.Fatalf("expected orders.json: %v", err)
	}

	runCmd(t, "profile", path, "--query", "SELECT channel FROM orders", "--name", "channels", "-o", outDir, "--format", "yaml", "--quiet")
	if _, err := os.Stat(filepath.Join(outDir, "channels.yaml")); err != nil {
		t.Fatalf("expected channels.yaml: %v", err)
	}
}

func TestParseDelimiter(t *testing.T) {
	cases := []struct {
		flag, fallback string
		want           rune
		ok             bool
	}{
		{"", "", 0, true},
		{"", ";", ';', true},
		{"tab", ";", '\t', true},
		{`\t`, "", '\t', true},
		{"|", "", '|', true},
		{"||", "", 0, false},
	}
	for _, tc := range cases {
		got, err := parseDelimiter(tc.flag, tc.fallback)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("parseDelimiter(%q, %q) = %q, %v", tc.flag, tc.fallback, got, err)
		}
	}
}

func TestExpandInputsDedupsAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"c.csv", "a.csv", "b.xlsx"} {
		writeFile(t, filepath.Join(dir, n), "x\n1\n")
	}
	got := expandInputs([]string{filepath.Join(dir, "*.csv"), filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.xlsx"), filepath.Join(dir, "nope.csv")})
	want := []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.xlsx"), filepath.Join(dir, "c.csv")}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expandInputs = %v, want %v", got, want)
	}
}
