package kube

// Centralized label and annotation keys stamped on generated resources.
// Keep these constants stable; changes are API-visible in clusters.
const (
	// NixDomain is the prefix for all nixernetes labels and annotations.
	NixDomain = "nixernetes.io"

	LabelAppK8sName      = "app.kubernetes.io/name"
	LabelAppK8sInstance  = "app.kubernetes.io/instance"
	LabelAppK8sManagedBy = "app.kubernetes.io/managed-by"
	LabelAppK8sComponent = "app.kubernetes.io/component"
	LabelAppK8sPartOf    = "app.kubernetes.io/part-of"

	ManagedByValue = "nixernetes"

	LabelNixFramework          = NixDomain + "/framework"
	LabelNixComplianceLevel    = NixDomain + "/compliance-level"
	LabelNixOwner              = NixDomain + "/owner"
	LabelNixDataClassification = NixDomain + "/data-classification"
	LabelNixEnvironment        = NixDomain + "/environment"
	LabelNixTenant             = NixDomain + "/tenant"

	AnnotationNixBuildID        = NixDomain + "/nix-build-id"
	AnnotationNixGeneratedBy    = NixDomain + "/generated-by"
	AnnotationNixContentHash    = NixDomain + "/content-hash"
	AnnotationNixNetworkPolicy  = NixDomain + "/network-policy"
	AnnotationNixSecurityPolicy = NixDomain + "/security-policy"
)
