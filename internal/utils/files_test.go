package utils_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/KaramelBytes/catprofile/internal/utils"
)

func TestSafeFileName(t *testing.T) {
	cases := map[string]string{
		"Shirts":          "shirts",
		"<dataframe>":     "dataframe",
		"../etc/passwd":   "etc_passwd",
		"Sales Q1: 2024":  "sales q1_ 2024",
		"":                "report",
		"...":             "report",
		"Données\tbrutes": "données_brutes",
	}
	for in, want := range cases {
		if got := utils.SafeFileName(in); got != want {
			t.Errorf("SafeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSafeWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	if err := utils.EnsureDir(dir); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	path := filepath.Join(dir, "a.html")
	if err := utils.SafeWriteFile(path, []byte("one")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := utils.SafeWriteFile(path, []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "two" {
		t.Fatalf("content = %q, %v", b, err)
	}
	assertOnlyFile(t, dir, "a.html")
	if info, err := os.Stat(path); err != nil || info.Mode().Perm() != 0o644 {
		t.Fatalf("mode = %v, %v", info.Mode().Perm(), err)
	}
}

func TestSafeWriteFileConcurrentSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shared.html")
	const writers = 64
	payloads := make(map[string]bool, writers)
	for i := 0; i < writers; i++ {
		payloads[strings.Repeat(strconv.Itoa(i%10), 4096+i)] = true
	}

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for p := range payloads {
		wg.Add(1)
		go func(data string) {
			defer wg.Done()
			errs <- utils.SafeWriteFile(path, []byte(data))
		}(p)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent write: %v", err)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !payloads[string(b)] {
		t.Fatalf("final content (%d bytes) is not one whole payload", len(b))
	}
	assertOnlyFile(t, dir, "shared.html")
}

func assertOnlyFile(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != name {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("dir holds %v, want only %s", names, name)
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"a": 1})
	if err != nil || string(b) != "{\n  \"a\": 1\n}" {
		t.Fatalf("PrettyJSON = %q, %v", b, err)
	}
}
