package manifest

import (
	"context"
	"fmt"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/internal/compose"
	"github.com/shift/nixernetes-sub005/internal/logging"
)

// ImportInput identifies a compose document to import.
type ImportInput struct {
	// Filename is used for error messages and the project working directory.
	Filename string
	Content  []byte
	// Namespace is set on every imported app.
	Namespace string
	// Env is the interpolation environment.
	Env map[string]string
}

// ImportOutput holds one app per compose service, in service name order.
type ImportOutput struct {
	Apps []kube.WebAppConfig
}

// Import converts the services of a compose document into app configs of
// the project file.
func (u *UseCase) Import(ctx context.Context, in *ImportInput) (*ImportOutput, error) {
	if in == nil || len(in.Content) == 0 {
		return nil, fmt.Errorf("missing compose content")
	}
	proj, err := compose.Load(ctx, in.Filename, in.Content, in.Env)
	if err != nil {
		return nil, err
	}
	apps, err := kube.WebAppsFromCompose(proj, in.Namespace)
	if err != nil {
		return nil, fmt.Errorf("compose import %s: %w", in.Filename, err)
	}
	logging.FromContext(ctx).Info(ctx, "compose import success", "file", in.Filename, "apps", len(apps))
	return &ImportOutput{Apps: apps}, nil
}
