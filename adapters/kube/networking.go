package kube

import (
	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// Ingress builds an Ingress. PathType defaults to Prefix and Path to "/".
func (b *Builder) Ingress(cfg IngressConfig) model.Resource {
	r := b.newResource(model.KindIngress, cfg.Meta)
	spec := netv1.IngressSpec{}
	if cfg.ClassName != "" {
		spec.IngressClassName = ptr.To(cfg.ClassName)
	}
	for _, rc := range cfg.Rules {
		rule := netv1.IngressRule{Host: rc.Host, IngressRuleValue: netv1.IngressRuleValue{HTTP: &netv1.HTTPIngressRuleValue{}}}
		for _, pc := range rc.Paths {
			path := pc.Path
			if path == "" {
				path = "/"
			}
			pt := netv1.PathTypePrefix
			if pc.PathType != "" {
				pt = netv1.PathType(pc.PathType)
			}
			rule.HTTP.Paths = append(rule.HTTP.Paths, netv1.HTTPIngressPath{
				Path:     path,
				PathType: ptr.To(pt),
				Backend: netv1.IngressBackend{Service: &netv1.IngressServiceBackend{
					Name: pc.ServiceName,
					Port: netv1.ServiceBackendPort{Number: pc.ServicePort},
				}},
			})
		}
		spec.Rules = append(spec.Rules, rule)
	}
	for _, tc := range cfg.TLS {
		spec.TLS = append(spec.TLS, netv1.IngressTLS{Hosts: append([]string(nil), tc.Hosts...), SecretName: tc.SecretName})
	}
	r.Spec = toMap(&spec)
	return r
}

func peerRules(rules []NetworkPolicyPeerRuleConfig) ([]netv1.NetworkPolicyPeer, [][]netv1.NetworkPolicyPort) {
	var peers []netv1.NetworkPolicyPeer
	var ports [][]netv1.NetworkPolicyPort
	for _, rc := range rules {
		var peer netv1.NetworkPolicyPeer
		if rc.Pods != nil {
			peer.PodSelector = &metav1.LabelSelector{MatchLabels: cloneOrNil(rc.Pods)}
		}
		if rc.Namespaces != nil {
			peer.NamespaceSelector = &metav1.LabelSelector{MatchLabels: cloneOrNil(rc.Namespaces)}
		}
		if rc.CIDR != "" {
			peer.IPBlock = &netv1.IPBlock{CIDR: rc.CIDR}
		}
		peers = append(peers, peer)
		var pp []netv1.NetworkPolicyPort
		for _, p := range rc.Ports {
			pp = append(pp, netv1.NetworkPolicyPort{Protocol: ptr.To(corev1.ProtocolTCP), Port: ptr.To(intstr.FromInt32(p))})
		}
		ports = append(ports, pp)
	}
	return peers, ports
}

// NetworkPolicy builds a NetworkPolicy. An empty PodSelector selects every
// pod in the namespace. PolicyTypes defaults to Ingress, plus Egress when
// egress rules are given.
func (b *Builder) NetworkPolicy(cfg NetworkPolicyConfig) model.Resource {
	r := b.newResource(model.KindNetworkPolicy, cfg.Meta)
	spec := netv1.NetworkPolicySpec{PodSelector: metav1.LabelSelector{MatchLabels: cloneOrNil(cfg.PodSelector)}}
	peers, ports := peerRules(cfg.Ingress)
	for i := range peers {
		spec.Ingress = append(spec.Ingress, netv1.NetworkPolicyIngressRule{From: peerList(peers[i]), Ports: ports[i]})
	}
	peers, ports = peerRules(cfg.Egress)
	for i := range peers {
		spec.Egress = append(spec.Egress, netv1.NetworkPolicyEgressRule{To: peerList(peers[i]), Ports: ports[i]})
	}
	for _, t := range cfg.PolicyTypes {
		spec.PolicyTypes = append(spec.PolicyTypes, netv1.PolicyType(t))
	}
	if len(spec.PolicyTypes) == 0 {
		spec.PolicyTypes = []netv1.PolicyType{netv1.PolicyTypeIngress}
		if len(cfg.Egress) > 0 {
			spec.PolicyTypes = append(spec.PolicyTypes, netv1.PolicyTypeEgress)
		}
	}
	m := toMap(&spec)
	if _, ok := m["podSelector"]; !ok {
		m["podSelector"] = map[string]any{}
	}
	r.Spec = m
	return r
}

// peerList drops a peer with no selectors, which would otherwise render as an
// empty element and change the rule's meaning.
func peerList(p netv1.NetworkPolicyPeer) []netv1.NetworkPolicyPeer {
	if p.PodSelector == nil && p.NamespaceSelector == nil && p.IPBlock == nil {
		return nil
	}
	return []netv1.NetworkPolicyPeer{p}
}

// DefaultDenyNetworkPolicy builds the "deny all ingress and egress" policy
// for a namespace.
func (b *Builder) DefaultDenyNetworkPolicy(namespace string, labels map[string]string) model.Resource {
	return b.NetworkPolicy(NetworkPolicyConfig{
		Meta:        Meta{Name: "default-deny", Namespace: namespace, Labels: labels},
		PolicyTypes: []string{string(netv1.PolicyTypeIngress), string(netv1.PolicyTypeEgress)},
	})
}
