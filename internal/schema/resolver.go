package schema

import (
	"fmt"
	"maps"
	"slices"

	utilversion "k8s.io/apimachinery/pkg/util/version"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// DefaultKubernetesVersion is used when callers do not pin a release.
const DefaultKubernetesVersion = "1.30"

// APIMap maps each kind to its apiVersion for one Kubernetes release.
type APIMap map[model.Kind]string

var supportedVersions = sortVersions([]string{"1.31", "1.28", "1.30", "1.29"})

// apiMaps is computed once from the registry and never mutated.
var apiMaps = buildAPIMaps()

func sortVersions(vs []string) []string {
	slices.SortFunc(vs, func(a, b string) int {
		va, vb := utilversion.MustParseGeneric(a), utilversion.MustParseGeneric(b)
		switch {
		case va.LessThan(vb):
			return -1
		case vb.LessThan(va):
			return 1
		}
		return 0
	})
	return vs
}

func buildAPIMaps() map[string]APIMap {
	out := make(map[string]APIMap, len(supportedVersions))
	for _, v := range supportedVersions {
		m := make(APIMap, len(registry))
		for kind, info := range registry {
			av := info.apiVersion
			if o, ok := info.byVersion[v]; ok {
				av = o
			}
			m[kind] = av
		}
		out[v] = m
	}
	return out
}

// normalize reduces "v1.30.2" or "1.30" to "1.30". ok is false when the
// string is not a version at all.
func normalize(v string) (string, bool) {
	parsed, err := utilversion.ParseGeneric(v)
	if err != nil {
		return v, false
	}
	return fmt.Sprintf("%d.%d", parsed.Major(), parsed.Minor()), true
}

// SupportedVersions returns the supported Kubernetes minor releases, oldest first.
func SupportedVersions() []string {
	return slices.Clone(supportedVersions)
}

// IsSupportedVersion reports whether v names a supported release.
func IsSupportedVersion(v string) bool {
	n, ok := normalize(v)
	if !ok {
		return false
	}
	_, found := apiMaps[n]
	return found
}

// APIMapFor returns the kind to apiVersion table for a release. The returned
// map is a copy.
func APIMapFor(version string) (APIMap, error) {
	m, err := lookup(version)
	if err != nil {
		return nil, err
	}
	return maps.Clone(m), nil
}

// ResolveAPIVersion returns the apiVersion for kind on the given release.
func ResolveAPIVersion(kind model.Kind, version string) (string, error) {
	m, err := lookup(version)
	if err != nil {
		return "", err
	}
	av, ok := m[kind]
	if !ok {
		return "", &model.UnknownKindError{Kind: kind, Version: version}
	}
	return av, nil
}

// KnownAPIVersions returns every apiVersion kind is served under across the
// supported releases, oldest release first, without duplicates.
func KnownAPIVersions(kind model.Kind) []string {
	var out []string
	for _, v := range supportedVersions {
		if av, ok := apiMaps[v][kind]; ok && !slices.Contains(out, av) {
			out = append(out, av)
		}
	}
	return out
}

// SupportedKinds returns every registered kind in lexical order.
func SupportedKinds() []model.Kind {
	kinds := make([]model.Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// IsKindSupported reports whether kind is registered.
func IsKindSupported(kind model.Kind) bool {
	_, ok := registry[kind]
	return ok
}

func lookup(version string) (APIMap, error) {
	n, ok := normalize(version)
	if ok {
		if m, found := apiMaps[n]; found {
			return m, nil
		}
	}
	return nil, &model.UnsupportedVersionError{Version: version, Supported: SupportedVersions()}
}
