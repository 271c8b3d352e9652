package kube

import (
	"cmp"
	"fmt"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// TenantConfig is the input of Builder.Tenant.
type TenantConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	// PodSecurity defaults to restricted.
	PodSecurity     string            `yaml:"podSecurity,omitempty" json:"podSecurity,omitempty"`
	Quota           map[string]string `yaml:"quota,omitempty" json:"quota,omitempty"`
	DefaultLimits   map[string]string `yaml:"defaultLimits,omitempty" json:"defaultLimits,omitempty"`
	DefaultRequests map[string]string `yaml:"defaultRequests,omitempty" json:"defaultRequests,omitempty"`
	// Admins are bound to the built-in admin ClusterRole in the namespace.
	Admins []SubjectConfig `yaml:"admins,omitempty" json:"admins,omitempty"`
	// AllowIntraNamespace adds a policy admitting ingress from pods of the
	// same namespace on top of the default deny.
	AllowIntraNamespace bool `yaml:"allowIntraNamespace,omitempty" json:"allowIntraNamespace,omitempty"`
}

var (
	defaultTenantQuota = map[string]string{
		"requests.cpu":    "4",
		"requests.memory": "8Gi",
		"limits.cpu":      "8",
		"limits.memory":   "16Gi",
		"pods":            "50",
	}
	defaultTenantLimits   = map[string]string{"cpu": "500m", "memory": "512Mi"}
	defaultTenantRequests = map[string]string{"cpu": "100m", "memory": "128Mi"}
)

// Tenant builds an isolated namespace: the Namespace, a ResourceQuota, a
// LimitRange, a default-deny NetworkPolicy and, with Admins, an admin
// RoleBinding. Every object carries the tenant label.
func (b *Builder) Tenant(cfg TenantConfig) []model.Resource {
	labels := mergeLabels(map[string]string{LabelNixTenant: cfg.Name}, cfg.Labels)
	ns := cfg.Name
	meta := func(suffix string) Meta {
		return Meta{Name: TenantPolicyName(cfg.Name, suffix), Namespace: ns, Labels: labels}
	}
	quota := cfg.Quota
	if len(quota) == 0 {
		quota = defaultTenantQuota
	}
	limits := cfg.DefaultLimits
	if len(limits) == 0 {
		limits = defaultTenantLimits
	}
	requests := cfg.DefaultRequests
	if len(requests) == 0 {
		requests = defaultTenantRequests
	}
	out := []model.Resource{
		b.Namespace(NamespaceConfig{
			Name:        ns,
			Labels:      labels,
			Annotations: cfg.Annotations,
			PodSecurity: cmp.Or(cfg.PodSecurity, "restricted"),
		}),
		b.ResourceQuota(ResourceQuotaConfig{Meta: meta("quota"), Hard: quota}),
		b.LimitRange(LimitRangeConfig{Meta: meta("limits"), Default: limits, DefaultRequest: requests}),
		b.DefaultDenyNetworkPolicy(ns, labels),
	}
	if cfg.AllowIntraNamespace {
		out = append(out, b.NetworkPolicy(NetworkPolicyConfig{
			Meta:    meta("allow-same-namespace"),
			Ingress: []NetworkPolicyPeerRuleConfig{{Pods: map[string]string{}}},
		}))
	}
	if len(cfg.Admins) > 0 {
		out = append(out, b.RoleBinding(RoleBindingConfig{
			Meta:     meta("admin"),
			RoleKind: "ClusterRole",
			RoleName: "admin",
			Subjects: cfg.Admins,
		}))
	}
	return out
}

// ServiceMeshConfig is the input of Builder.ServiceMesh.
type ServiceMeshConfig struct {
	Meta `yaml:",inline"`
	// Selector narrows PeerAuthentication to matching workloads; empty means
	// the whole namespace.
	Selector map[string]string `yaml:"selector,omitempty" json:"selector,omitempty"`
	// MTLSMode is STRICT (default), PERMISSIVE or DISABLE.
	MTLSMode string `yaml:"mtlsMode,omitempty" json:"mtlsMode,omitempty"`
	// Host defaults to every service of the namespace.
	Host           string `yaml:"host,omitempty" json:"host,omitempty"`
	LoadBalancer   string `yaml:"loadBalancer,omitempty" json:"loadBalancer,omitempty"`
	MaxConnections int32  `yaml:"maxConnections,omitempty" json:"maxConnections,omitempty"`
}

// ServiceMesh builds an Istio PeerAuthentication enforcing mutual TLS and a
// DestinationRule originating it.
func (b *Builder) ServiceMesh(cfg ServiceMeshConfig) []model.Resource {
	pa := b.newResource(model.KindPeerAuthentication, cfg.Meta)
	pa.Spec = map[string]any{"mtls": map[string]any{"mode": cmp.Or(cfg.MTLSMode, "STRICT")}}
	if len(cfg.Selector) > 0 {
		pa.Spec["selector"] = map[string]any{"matchLabels": stringMapAny(cfg.Selector)}
	}

	dr := b.newResource(model.KindDestinationRule, cfg.Meta)
	host := cfg.Host
	if host == "" {
		host = fmt.Sprintf("*.%s.svc.cluster.local", dr.Metadata.Namespace)
	}
	traffic := map[string]any{
		"tls":          map[string]any{"mode": "ISTIO_MUTUAL"},
		"loadBalancer": map[string]any{"simple": cmp.Or(cfg.LoadBalancer, "ROUND_ROBIN")},
	}
	if cfg.MaxConnections > 0 {
		traffic["connectionPool"] = map[string]any{"tcp": map[string]any{"maxConnections": int64(cfg.MaxConnections)}}
	}
	dr.Spec = map[string]any{"host": host, "trafficPolicy": traffic}
	return []model.Resource{pa, dr}
}

// GatewayRouteConfig forwards a path prefix to a Service port.
type GatewayRouteConfig struct {
	PathPrefix  string `yaml:"pathPrefix,omitempty" json:"pathPrefix,omitempty"`
	ServiceName string `yaml:"serviceName" json:"serviceName"`
	ServicePort int32  `yaml:"servicePort" json:"servicePort"`
}

// GatewayConfig is the input of Builder.Gateway.
type GatewayConfig struct {
	Meta      `yaml:",inline"`
	ClassName string   `yaml:"className" json:"className"`
	Hostnames []string `yaml:"hostnames,omitempty" json:"hostnames,omitempty"`
	// TLSSecret adds an HTTPS listener terminating with this certificate.
	TLSSecret string               `yaml:"tlsSecret,omitempty" json:"tlsSecret,omitempty"`
	Routes    []GatewayRouteConfig `yaml:"routes" json:"routes"`
}

// Gateway builds a Gateway API Gateway and an HTTPRoute attached to it.
func (b *Builder) Gateway(cfg GatewayConfig) []model.Resource {
	gw := b.newResource(model.KindGateway, cfg.Meta)
	listeners := []any{map[string]any{"name": "http", "protocol": "HTTP", "port": int64(80)}}
	if cfg.TLSSecret != "" {
		listeners = append(listeners, map[string]any{
			"name":     "https",
			"protocol": "HTTPS",
			"port":     int64(443),
			"tls": map[string]any{
				"mode":            "Terminate",
				"certificateRefs": []any{map[string]any{"kind": "Secret", "name": cfg.TLSSecret}},
			},
		})
	}
	gw.Spec = map[string]any{"gatewayClassName": cfg.ClassName, "listeners": listeners}

	route := b.newResource(model.KindHTTPRoute, cfg.Meta)
	var rules []any
	for _, rc := range cfg.Routes {
		rules = append(rules, map[string]any{
			"matches": []any{map[string]any{
				"path": map[string]any{"type": "PathPrefix", "value": cmp.Or(rc.PathPrefix, "/")},
			}},
			"backendRefs": []any{map[string]any{"name": rc.ServiceName, "port": int64(rc.ServicePort)}},
		})
	}
	route.Spec = map[string]any{
		"parentRefs": []any{map[string]any{"name": cfg.Name}},
		"rules":      rules,
	}
	if len(cfg.Hostnames) > 0 {
		route.Spec["hostnames"] = stringsToAny(cfg.Hostnames)
	}
	return []model.Resource{gw, route}
}

// SchedulingPoliciesConfig is the input of Builder.SchedulingPolicies. It
// names an existing workload.
type SchedulingPoliciesConfig struct {
	Meta       `yaml:",inline"`
	TargetKind string            `yaml:"targetKind,omitempty" json:"targetKind,omitempty"`
	Selector   map[string]string `yaml:"selector,omitempty" json:"selector,omitempty"`
	// Priority, when set, creates the <name>-priority PriorityClass.
	Priority         *int32 `yaml:"priority,omitempty" json:"priority,omitempty"`
	PreemptionPolicy string `yaml:"preemptionPolicy,omitempty" json:"preemptionPolicy,omitempty"`
	MinAvailable     string `yaml:"minAvailable,omitempty" json:"minAvailable,omitempty"`
	MaxUnavailable   string `yaml:"maxUnavailable,omitempty" json:"maxUnavailable,omitempty"`
	// MaxReplicas above zero creates a HorizontalPodAutoscaler.
	MinReplicas    *int32 `yaml:"minReplicas,omitempty" json:"minReplicas,omitempty"`
	MaxReplicas    int32  `yaml:"maxReplicas,omitempty" json:"maxReplicas,omitempty"`
	CPUUtilization *int32 `yaml:"cpuUtilization,omitempty" json:"cpuUtilization,omitempty"`
}

// SchedulingPolicies builds the PriorityClass, PodDisruptionBudget and
// HorizontalPodAutoscaler guarding an existing workload. The PDB is always
// produced; the other two only when configured.
func (b *Builder) SchedulingPolicies(cfg SchedulingPoliciesConfig) []model.Resource {
	var out []model.Resource
	if cfg.Priority != nil {
		out = append(out, b.PriorityClass(PriorityClassConfig{
			Name:             cfg.Name + "-priority",
			Labels:           cfg.Labels,
			Value:            *cfg.Priority,
			Description:      "priority of " + cfg.Name,
			PreemptionPolicy: cfg.PreemptionPolicy,
		}))
	}
	out = append(out, b.PodDisruptionBudget(PodDisruptionBudgetConfig{
		Meta:           cfg.Meta,
		Selector:       cfg.Selector,
		MinAvailable:   cfg.MinAvailable,
		MaxUnavailable: cfg.MaxUnavailable,
	}))
	if cfg.MaxReplicas > 0 {
		out = append(out, b.HorizontalPodAutoscaler(HorizontalPodAutoscalerConfig{
			Meta:           cfg.Meta,
			TargetKind:     cfg.TargetKind,
			TargetName:     cfg.Name,
			MinReplicas:    cfg.MinReplicas,
			MaxReplicas:    cfg.MaxReplicas,
			CPUUtilization: cfg.CPUUtilization,
		}))
	}
	return out
}
