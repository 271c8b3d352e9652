// Package compose loads docker compose files for import into nixernetes apps.
package compose

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"

	"github.com/shift/nixernetes-sub005/internal/logging"
)

// Load parses a single compose document. Includes are not followed and
// interpolation sees only env.
func Load(ctx context.Context, filename string, content []byte, env map[string]string) (*types.Project, error) {
	logger := logging.FromContext(ctx)
	if env == nil {
		env = map[string]string{}
	}
	details := types.ConfigDetails{
		WorkingDir:  filepath.Dir(filename),
		ConfigFiles: []types.ConfigFile{{Filename: filename, Content: content}},
		Environment: env,
	}
	proj, err := loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		o.SetProjectName("nixernetes", false)
		o.SkipInclude = true
	})
	if err != nil {
		return nil, fmt.Errorf("load compose project %s: %w", filename, err)
	}
	if hasVersionKey(content) {
		logger.Warn(ctx, "compose: `version` is obsolete", "file", filename)
	}
	logger.Debug(ctx, "compose: loaded", "file", filename, "services", len(proj.Services))
	return proj, nil
}

// ServiceNames returns the project's service names in lexical order.
func ServiceNames(proj *types.Project) []string {
	names := make([]string, 0, len(proj.Services))
	for name := range proj.Services {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// hasVersionKey reports whether the document has a top-level version key.
func hasVersionKey(content []byte) bool {
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(line, "version:") {
			return true
		}
	}
	return false
}
