package kube

// HeadlessServiceName returns `<name>-headless`.
// Used for the governing Service of a StatefulSet composite.
func HeadlessServiceName(name string) string {
	return name + "-headless"
}

// SecretPullName returns `<name>-pull`.
// Used for registry auth Secret (kubernetes.io/dockerconfigjson).
func SecretPullName(name string) string {
	return name + "-pull"
}

// CredentialsSecretName returns `<name>-credentials`.
// Used for generated database and broker credentials.
func CredentialsSecretName(name string) string {
	return name + "-credentials"
}

// ConfigMapName returns `<app>-config`.
// Used for the ConfigMap of a WebApp composite.
func ConfigMapName(app string) string {
	return app + "-config"
}

// DataClaimName returns `<name>-data`.
// Used for PVCs and volumeClaimTemplates holding persistent data.
func DataClaimName(name string) string {
	return name + "-data"
}

// TenantPolicyName returns `<tenant>-<suffix>`.
// Used for the quota, limit range, network policy and binding of a tenant.
func TenantPolicyName(tenant, suffix string) string {
	return tenant + "-" + suffix
}
