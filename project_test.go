package datadriven

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testResultCapture implements TestingT for standalone test execution in tests.
type testResultCapture struct {
	failed bool
	errors []string
	logs   []string
}

func (t *testResultCapture) Errorf(format string, args ...any) {
	t.failed = true
	t.errors = append(t.errors, fmt.Sprintf(format, args...))
}
func (t *testResultCapture) Fatal(args ...any) {
	t.failed = true
	t.errors = append(t.errors, fmt.Sprint(args...))
}
func (t *testResultCapture) Fatalf(format string, args ...any) {
	t.failed = true
	t.errors = append(t.errors, fmt.Sprintf(format, args...))
}
func (t *testResultCapture) Log(args ...any) { t.logs = append(t.logs, fmt.Sprint(args...)) }
func (t *testResultCapture) Logf(format string, args ...any) {
	t.logs = append(t.logs, fmt.Sprintf(format, args...))
}
func (t *testResultCapture) Failed() bool { return t.failed }
func (t *testResultCapture) Helper()      {}

func writeFile(t *testing.T, path string, content []byte, perm os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, content, perm); err != nil {
		t.Fatal(err)
	}
}

func mkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}

// relFiles returns the fixture files of cfg relative to its directory.
func relFiles(t *testing.T, cfg *ProjectConfig) []string {
	t.Helper()
	files, err := cfg.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(cfg.Dir(), f)
		if err != nil {
			t.Fatal(err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	return rel
}

func TestLoadProjectConfig_EmptyDir(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadProjectConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error for empty dir: %v", err)
	}
	if cfg.Pattern != "" || cfg.Recursive || len(cfg.Skip) != 0 || cfg.UniqueNames {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if !filepath.IsAbs(cfg.Dir()) {
		t.Errorf("Dir() = %q, want an absolute path", cfg.Dir())
	}
	if files := relFiles(t, cfg); len(files) != 0 {
		t.Errorf("Files() = %v, want none", files)
	}
}

func TestLoadProjectConfig_WithTOML(t *testing.T) {
	dir := t.TempDir()

	toml := `pattern = "*.dd"
recursive = true
skip = ["scratch"]
unique_names = true
`
	writeFile(t, filepath.Join(dir, ProjectFile), []byte(toml), 0644)

	cfg, err := LoadProjectConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pattern != "*.dd" {
		t.Errorf("Pattern = %q, want *.dd", cfg.Pattern)
	}
	if !cfg.Recursive {
		t.Error("Recursive = false, want true")
	}
	if len(cfg.Skip) != 1 || cfg.Skip[0] != "scratch" {
		t.Errorf("Skip = %v, want [scratch]", cfg.Skip)
	}
	if !cfg.UniqueNames {
		t.Error("UniqueNames = false, want true")
	}
}

func TestLoadProjectConfig_InvalidTOML(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, ProjectFile), []byte("invalid [[[toml"), 0644)

	_, err := LoadProjectConfig(dir)
	if err == nil {
		t.Fatal("expected error for invalid TOML, got nil")
	}
}

func TestLoadProjectConfig_BadPattern(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, ProjectFile), []byte("pattern = \"[\"\n"), 0644)

	_, err := LoadProjectConfig(dir)
	if err == nil || !strings.Contains(err.Error(), "pattern") {
		t.Fatalf("error = %v, want a pattern error", err)
	}
}

func TestLoadProjectConfig_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	writeFile(t, path, []byte("x\n----\n"), 0644)

	if _, err := LoadProjectConfig(path); err == nil {
		t.Fatal("expected error for a regular file, got nil")
	}
	if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for a missing directory, got nil")
	}
}

func TestProjectFiles_TopLevelOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b"), nil, 0644)
	writeFile(t, filepath.Join(dir, "a"), nil, 0644)
	writeFile(t, filepath.Join(dir, ".hidden"), nil, 0644)
	writeFile(t, filepath.Join(dir, ProjectFile), nil, 0644)
	mkdirAll(t, filepath.Join(dir, "sub"))
	writeFile(t, filepath.Join(dir, "sub", "c"), nil, 0644)

	cfg, err := LoadProjectConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := relFiles(t, cfg)
	if want := "a b"; strings.Join(got, " ") != want {
		t.Errorf("Files() = %v, want %s", got, want)
	}
}

func TestProjectFiles_RecursivePatternSkip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectFile), []byte(`pattern = "*.dd"
recursive = true
skip = ["scratch"]
`), 0644)
	writeFile(t, filepath.Join(dir, "top.dd"), nil, 0644)
	writeFile(t, filepath.Join(dir, "README.md"), nil, 0644)
	mkdirAll(t, filepath.Join(dir, "sub", "deeper"))
	writeFile(t, filepath.Join(dir, "sub", "one.dd"), nil, 0644)
	writeFile(t, filepath.Join(dir, "sub", "deeper", "two.dd"), nil, 0644)
	mkdirAll(t, filepath.Join(dir, "scratch"))
	writeFile(t, filepath.Join(dir, "scratch", "ignored.dd"), nil, 0644)
	mkdirAll(t, filepath.Join(dir, ".git"))
	writeFile(t, filepath.Join(dir, ".git", "config.dd"), nil, 0644)

	cfg, err := LoadProjectConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := relFiles(t, cfg)
	want := []string{"sub/deeper/two.dd", "sub/one.dd", "top.dd"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("Files() = %v, want %v", got, want)
	}
}
