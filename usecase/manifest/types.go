// Package manifest implements the manifest generation, validation and
// ordering use cases.
package manifest

import "github.com/google/uuid"

// GeneratedBy is recorded in the generated-by annotation of every resource.
const GeneratedBy = "nixernetes"

// UseCase carries the collaborators of the manifest use cases.
type UseCase struct {
	// NewBuildID returns a build id when neither the input nor the project
	// file carries one. Defaults to a random UUID.
	NewBuildID func() string
	// GeneratedBy overrides the generated-by annotation.
	GeneratedBy string
}

// New returns a UseCase with default collaborators.
func New() *UseCase {
	return &UseCase{NewBuildID: uuid.NewString, GeneratedBy: GeneratedBy}
}

func (u *UseCase) buildID(ids ...string) string {
	for _, id := range ids {
		if id != "" {
			return id
		}
	}
	if u.NewBuildID != nil {
		return u.NewBuildID()
	}
	return uuid.NewString()
}

func (u *UseCase) generatedBy() string {
	if u.GeneratedBy == "" {
		return GeneratedBy
	}
	return u.GeneratedBy
}
