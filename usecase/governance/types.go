// Package governance implements the compliance report and policy use cases.
package governance

// UseCase carries the governance use cases. It has no collaborators; the
// profile and policy tables are static.
type UseCase struct{}

// New returns a UseCase.
func New() *UseCase { return &UseCase{} }
