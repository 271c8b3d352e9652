package kube

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// EnvDataLimit bounds the merged size of keys and values read from env
// files. It matches the Kubernetes object size limit.
const EnvDataLimit = 1 << 20

var envKeyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// LoadEnvFiles returns a copy of c whose data also holds the entries of its
// env files, read relative to baseDir. Entries in data win over env files.
func (c ConfigMapConfig) LoadEnvFiles(baseDir string) (ConfigMapConfig, error) {
	if len(c.EnvFiles) == 0 {
		return c, nil
	}
	m, err := ReadEnvFiles(baseDir, c.EnvFiles)
	if err != nil {
		return c, fmt.Errorf("configMap %s: %w", c.Name, err)
	}
	maps.Copy(m, c.Data)
	c.Data = m
	return c, nil
}

// LoadEnvFiles returns a copy of c whose stringData also holds the entries
// of its env files, read relative to baseDir. Entries in stringData win over
// env files.
func (c SecretConfig) LoadEnvFiles(baseDir string) (SecretConfig, error) {
	if len(c.EnvFiles) == 0 {
		return c, nil
	}
	m, err := ReadEnvFiles(baseDir, c.EnvFiles)
	if err != nil {
		return c, fmt.Errorf("secret %s: %w", c.Name, err)
	}
	maps.Copy(m, c.StringData)
	c.StringData = m
	return c, nil
}

// ReadEnvFiles reads and merges env files in order; later files override
// earlier ones. The merged data is checked with ValidateEnvData.
func ReadEnvFiles(baseDir string, paths []string) (map[string]string, error) {
	merged := map[string]string{}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		m, err := ReadEnvDirFile(baseDir, p)
		if err != nil {
			return nil, err
		}
		maps.Copy(merged, m)
	}
	if err := ValidateEnvData(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// ReadEnvDirFile reads an env file relative to baseDir. Absolute paths,
// paths containing "..", symlinks and directories are rejected.
func ReadEnvDirFile(baseDir, relPath string) (map[string]string, error) {
	if filepath.IsAbs(relPath) {
		return nil, fmt.Errorf("env file must be relative: %s", relPath)
	}
	if strings.Contains(relPath, "..") {
		return nil, fmt.Errorf("env file path must not contain '..': %s", relPath)
	}
	full := filepath.Join(baseDir, relPath)
	info, err := os.Lstat(full)
	if err != nil {
		return nil, fmt.Errorf("env file %s: %w", relPath, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("env file symlink not allowed: %s", relPath)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("env file is a directory: %s", relPath)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("env file %s: %w", relPath, err)
	}
	m, err := ParseEnv(data, relPath)
	if err != nil {
		return nil, fmt.Errorf("env file %s: %w", relPath, err)
	}
	return m, nil
}

// ParseEnv parses key/value content. The extension of path selects the
// syntax: .yaml/.yml and .json hold a flat object, anything else is dotenv.
func ParseEnv(content []byte, path string) (map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		var obj map[string]any
		if err := yaml.Unmarshal(content, &obj); err != nil {
			return nil, err
		}
		return flatValues(obj)
	case ".json":
		var obj map[string]any
		if err := json.Unmarshal(content, &obj); err != nil {
			return nil, err
		}
		return flatValues(obj)
	default:
		return parseDotEnv(content)
	}
}

func parseDotEnv(data []byte) (map[string]string, error) {
	m := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, raw, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '='", lineNo)
		}
		key = strings.TrimSpace(key)
		if !envKeyRe.MatchString(key) {
			return nil, fmt.Errorf("line %d: invalid key %q", lineNo, key)
		}
		val, err := dotEnvValue(strings.TrimPrefix(raw, " "))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		m[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// dotEnvValue unquotes a dotenv value. Double quotes support the \\ \" \n
// \r and \t escapes; single quotes are literal.
func dotEnvValue(raw string) (string, error) {
	switch {
	case strings.HasPrefix(raw, `"`):
		if len(raw) < 2 || !strings.HasSuffix(raw, `"`) {
			return "", errors.New("unterminated double quote")
		}
		body := raw[1 : len(raw)-1]
		var b strings.Builder
		for i := 0; i < len(body); i++ {
			ch := body[i]
			if ch != '\\' {
				b.WriteByte(ch)
				continue
			}
			if i+1 >= len(body) {
				return "", errors.New("dangling escape")
			}
			i++
			switch esc := body[i]; esc {
			case '\\', '"':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				return "", fmt.Errorf("unsupported escape \\%c", esc)
			}
		}
		return b.String(), nil
	case strings.HasPrefix(raw, "'"):
		if len(raw) < 2 || !strings.HasSuffix(raw, "'") {
			return "", errors.New("unterminated single quote")
		}
		return raw[1 : len(raw)-1], nil
	default:
		return raw, nil
	}
}

// flatValues coerces scalar values to strings. Nulls and nested values are
// errors.
func flatValues(obj map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch vv := v.(type) {
		case string:
			out[k] = vv
		case bool, int, int64, float64:
			out[k] = fmt.Sprint(vv)
		case nil:
			return nil, fmt.Errorf("key %s has a null value", k)
		default:
			return nil, fmt.Errorf("key %s has unsupported value type %T", k, v)
		}
	}
	return out, nil
}

// ValidateEnvData checks key syntax, rejects control characters in values
// and bounds the total size by EnvDataLimit.
func ValidateEnvData(m map[string]string) error {
	var total int
	for k, v := range m {
		if !envKeyRe.MatchString(k) {
			return fmt.Errorf("invalid key %q", k)
		}
		if err := rejectControl(v); err != nil {
			return fmt.Errorf("value for %s: %w", k, err)
		}
		total += len(k) + len(v)
	}
	if total > EnvDataLimit {
		return fmt.Errorf("env data is %d bytes, exceeds %d", total, EnvDataLimit)
	}
	return nil
}

func rejectControl(s string) error {
	for _, r := range s {
		if r == 0 {
			return errors.New("contains NUL byte")
		}
		if (r >= 0x01 && r <= 0x08) || r == 0x0B || r == 0x0C || (r >= 0x0E && r <= 0x1F) || r == 0x7F {
			return fmt.Errorf("contains control char 0x%02X", r)
		}
	}
	return nil
}
