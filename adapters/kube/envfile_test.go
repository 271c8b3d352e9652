package kube

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeEnv(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestParseEnv_DotEnv(t *testing.T) {
	t.Parallel()
	in := "# comment\n\nexport A=1\nB= spaced\nC=\"line\\nnext \\\"q\\\"\"\nD='raw \\n'\nE=\n"
	got, err := ParseEnv([]byte(in), ".env")
	if err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	want := map[string]string{"A": "1", "B": "spaced", "C": "line\nnext \"q\"", "D": `raw \n`, "E": ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseEnv mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEnv_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, path, in, want string
	}{
		{"missing equals", "x.env", "NOEQ\n", "missing '='"},
		{"bad key", "x.env", "1A=b\n", "invalid key"},
		{"unterminated", "x.env", "A=\"open\n", "unterminated double quote"},
		{"bad escape", "x.env", "A=\"\\x\"\n", "unsupported escape"},
		{"yaml null", "x.yaml", "A: null\n", "null value"},
		{"json nested", "x.json", `{"A": {"b": 1}}`, "unsupported value type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnv([]byte(tt.in), tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseEnv(%q) error = %v, want containing %q", tt.in, err, tt.want)
			}
		})
	}
}

func TestReadEnvFiles_MergeOrder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeEnv(t, dir, "base.env", "A=1\nB=2\n")
	writeEnv(t, dir, "over.yaml", "B: 3\nC: true\n")
	writeEnv(t, dir, "more.json", `{"D": "x", "E": 1.5}`)

	got, err := ReadEnvFiles(dir, []string{"base.env", "over.yaml", " ", "more.json"})
	if err != nil {
		t.Fatalf("ReadEnvFiles: %v", err)
	}
	want := map[string]string{"A": "1", "B": "3", "C": "true", "D": "x", "E": "1.5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadEnvFiles mismatch (-want +got):\n%s", diff)
	}
}

func TestReadEnvDirFile_Rejects(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeEnv(t, dir, "real.env", "A=1\n")
	if err := os.Symlink(filepath.Join(dir, "real.env"), filepath.Join(dir, "link.env")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	tests := []struct {
		path, want string
	}{
		{filepath.Join(dir, "real.env"), "must be relative"},
		{"../real.env", "must not contain"},
		{"link.env", "symlink"},
		{"sub", "directory"},
		{"missing.env", "missing.env"},
	}
	for _, tt := range tests {
		if _, err := ReadEnvDirFile(dir, tt.path); err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("ReadEnvDirFile(%q) error = %v, want containing %q", tt.path, err, tt.want)
		}
	}
}

func TestValidateEnvData(t *testing.T) {
	t.Parallel()
	if err := ValidateEnvData(map[string]string{"A": "ok\ttab\nnl"}); err != nil {
		t.Errorf("ValidateEnvData: %v", err)
	}
	if err := ValidateEnvData(map[string]string{"A": "bell\a"}); err == nil {
		t.Error("control character accepted")
	}
	if err := ValidateEnvData(map[string]string{"A": strings.Repeat("x", EnvDataLimit)}); err == nil {
		t.Error("oversized data accepted")
	}
}

func TestSecretConfigLoadEnvFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeEnv(t, dir, "db.env", "USER=app\nPASSWORD=from-file\n")

	cfg := SecretConfig{Meta: Meta{Name: "db"}, StringData: map[string]string{"PASSWORD": "inline"}, EnvFiles: []string{"db.env"}}
	got, err := cfg.LoadEnvFiles(dir)
	if err != nil {
		t.Fatalf("LoadEnvFiles: %v", err)
	}
	want := map[string]string{"USER": "app", "PASSWORD": "inline"}
	if diff := cmp.Diff(want, got.StringData); diff != "" {
		t.Errorf("StringData mismatch (-want +got):\n%s", diff)
	}
	if cfg.StringData["USER"] != "" {
		t.Error("LoadEnvFiles modified its receiver's map")
	}
}
