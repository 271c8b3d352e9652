// Package schema maps resource kinds to the apiVersion each supported
// Kubernetes release serves them under.
package schema

import (
	admissionregistrationv1 "k8s.io/api/admissionregistration/v1"
	admissionregistrationv1beta1 "k8s.io/api/admissionregistration/v1beta1"
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	flowcontrolv1 "k8s.io/api/flowcontrol/v1"
	flowcontrolv1beta3 "k8s.io/api/flowcontrol/v1beta3"
	netv1 "k8s.io/api/networking/v1"
	policyv1 "k8s.io/api/policy/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	schedulingv1 "k8s.io/api/scheduling/v1"
	storagev1 "k8s.io/api/storage/v1"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// CRD group/versions served by add-ons rather than the API server itself.
const (
	KyvernoAPIVersion      = "kyverno.io/v1"
	FluxHelmAPIVersion     = "helm.toolkit.fluxcd.io/v2"
	GatewayAPIVersion      = "gateway.networking.k8s.io/v1"
	IstioNetworkingVersion = "networking.istio.io/v1beta1"
	IstioSecurityVersion   = "security.istio.io/v1beta1"
)

// kindInfo describes one registered kind. byVersion overrides apiVersion for
// specific minor releases.
type kindInfo struct {
	apiVersion string
	byVersion  map[string]string
	namespaced bool
	builtin    bool
}

var (
	core       = corev1.SchemeGroupVersion.String()
	apps       = appsv1.SchemeGroupVersion.String()
	batch      = batchv1.SchemeGroupVersion.String()
	rbac       = rbacv1.SchemeGroupVersion.String()
	networking = netv1.SchemeGroupVersion.String()
)

var registry = map[model.Kind]kindInfo{
	model.KindNamespace:             {apiVersion: core, builtin: true},
	model.KindPod:                   {apiVersion: core, namespaced: true, builtin: true},
	model.KindService:               {apiVersion: core, namespaced: true, builtin: true},
	model.KindConfigMap:             {apiVersion: core, namespaced: true, builtin: true},
	model.KindSecret:                {apiVersion: core, namespaced: true, builtin: true},
	model.KindPersistentVolume:      {apiVersion: core, builtin: true},
	model.KindPersistentVolumeClaim: {apiVersion: core, namespaced: true, builtin: true},
	model.KindServiceAccount:        {apiVersion: core, namespaced: true, builtin: true},
	model.KindResourceQuota:         {apiVersion: core, namespaced: true, builtin: true},
	model.KindLimitRange:            {apiVersion: core, namespaced: true, builtin: true},

	model.KindDeployment:  {apiVersion: apps, namespaced: true, builtin: true},
	model.KindStatefulSet: {apiVersion: apps, namespaced: true, builtin: true},
	model.KindDaemonSet:   {apiVersion: apps, namespaced: true, builtin: true},
	model.KindReplicaSet:  {apiVersion: apps, namespaced: true, builtin: true},

	model.KindJob:     {apiVersion: batch, namespaced: true, builtin: true},
	model.KindCronJob: {apiVersion: batch, namespaced: true, builtin: true},

	model.KindRole:               {apiVersion: rbac, namespaced: true, builtin: true},
	model.KindRoleBinding:        {apiVersion: rbac, namespaced: true, builtin: true},
	model.KindClusterRole:        {apiVersion: rbac, builtin: true},
	model.KindClusterRoleBinding: {apiVersion: rbac, builtin: true},

	model.KindIngress:       {apiVersion: networking, namespaced: true, builtin: true},
	model.KindIngressClass:  {apiVersion: networking, builtin: true},
	model.KindNetworkPolicy: {apiVersion: networking, namespaced: true, builtin: true},

	model.KindHorizontalPodAutoscaler: {apiVersion: autoscalingv2.SchemeGroupVersion.String(), namespaced: true, builtin: true},
	model.KindPodDisruptionBudget:     {apiVersion: policyv1.SchemeGroupVersion.String(), namespaced: true, builtin: true},
	model.KindPriorityClass:           {apiVersion: schedulingv1.SchemeGroupVersion.String(), builtin: true},
	model.KindStorageClass:            {apiVersion: storagev1.SchemeGroupVersion.String(), builtin: true},

	model.KindFlowSchema: {
		apiVersion: flowcontrolv1.SchemeGroupVersion.String(),
		byVersion:  map[string]string{"1.28": flowcontrolv1beta3.SchemeGroupVersion.String()},
		builtin:    true,
	},
	model.KindPriorityLevelConfiguration: {
		apiVersion: flowcontrolv1.SchemeGroupVersion.String(),
		byVersion:  map[string]string{"1.28": flowcontrolv1beta3.SchemeGroupVersion.String()},
		builtin:    true,
	},
	model.KindValidatingAdmissionPolicy: {
		apiVersion: admissionregistrationv1.SchemeGroupVersion.String(),
		byVersion: map[string]string{
			"1.28": admissionregistrationv1beta1.SchemeGroupVersion.String(),
			"1.29": admissionregistrationv1beta1.SchemeGroupVersion.String(),
		},
		builtin: true,
	},
	model.KindValidatingAdmissionPolicyBinding: {
		apiVersion: admissionregistrationv1.SchemeGroupVersion.String(),
		byVersion: map[string]string{
			"1.28": admissionregistrationv1beta1.SchemeGroupVersion.String(),
			"1.29": admissionregistrationv1beta1.SchemeGroupVersion.String(),
		},
		builtin: true,
	},

	model.KindClusterPolicy:      {apiVersion: KyvernoAPIVersion},
	model.KindPolicy:             {apiVersion: KyvernoAPIVersion, namespaced: true},
	model.KindHelmRelease:        {apiVersion: FluxHelmAPIVersion, namespaced: true},
	model.KindGateway:            {apiVersion: GatewayAPIVersion, namespaced: true},
	model.KindHTTPRoute:          {apiVersion: GatewayAPIVersion, namespaced: true},
	model.KindPeerAuthentication: {apiVersion: IstioSecurityVersion, namespaced: true},
	model.KindDestinationRule:    {apiVersion: IstioNetworkingVersion, namespaced: true},
}

// IsNamespaced reports whether kind is namespace scoped. Unknown kinds are
// treated as namespaced.
func IsNamespaced(kind model.Kind) bool {
	info, ok := registry[kind]
	return !ok || info.namespaced
}

// IsBuiltin reports whether kind is served by the Kubernetes API server
// itself, as opposed to a custom resource definition.
func IsBuiltin(kind model.Kind) bool {
	return registry[kind].builtin
}
