package kube

import (
	"fmt"
	"strconv"

	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"

	"github.com/shift/nixernetes-sub005/internal/compose"
	"github.com/shift/nixernetes-sub005/internal/quantity"
)

// ComposeExtension is the x-nixernetes service extension. Values here win
// over what is derived from the compose service.
type ComposeExtension struct {
	Kind      string            `yaml:"kind,omitempty"`
	Resources ResourcesConfig   `yaml:"resources,omitempty"`
	Ingress   *WebIngressConfig `yaml:"ingress,omitempty"`
}

// ComposeExtensionKey is the service extension read by WebAppsFromCompose.
const ComposeExtensionKey = "x-nixernetes"

// WebAppsFromCompose turns every compose service into a WebAppConfig in
// namespace, in service name order.
//
// Mapping:
//   - image, entrypoint (command) and command (args) are copied.
//   - environment entries with a value become env.
//   - ports keep their container port; a published port becomes the
//     Service port.
//   - deploy.replicas sets replicas; deploy.resources reservations and
//     limits become requests and limits.
func WebAppsFromCompose(proj *types.Project, namespace string) ([]WebAppConfig, error) {
	var out []WebAppConfig
	for _, name := range compose.ServiceNames(proj) {
		s := proj.Services[name]
		if s.Image == "" {
			return nil, fmt.Errorf("compose service %s: image is required", name)
		}
		ctr := ContainerConfig{
			Name:    name,
			Image:   s.Image,
			Command: []string(s.Entrypoint),
			Args:    []string(s.Command),
		}
		for k, v := range s.Environment {
			if v == nil {
				continue
			}
			if ctr.Env == nil {
				ctr.Env = map[string]string{}
			}
			ctr.Env[k] = *v
		}
		var svcPorts []ServicePortConfig
		for _, p := range s.Ports {
			if p.Target == 0 {
				return nil, fmt.Errorf("compose service %s: port without container port", name)
			}
			target := int32(p.Target)
			ctr.Ports = appendPort(ctr.Ports, target)
			port := target
			if p.Published != "" {
				n, err := strconv.Atoi(p.Published)
				if err != nil || n <= 0 || n > 65535 {
					return nil, fmt.Errorf("compose service %s: invalid published port %q", name, p.Published)
				}
				port = int32(n)
			}
			svcPorts = append(svcPorts, ServicePortConfig{Port: port, TargetPort: target, Protocol: protocolOf(p.Protocol)})
		}
		if len(svcPorts) > 1 {
			for i := range svcPorts {
				svcPorts[i].Name = fmt.Sprintf("tcp-%d", svcPorts[i].Port)
			}
		}

		app := WebAppConfig{Meta: Meta{Name: name, Namespace: namespace}}
		if d := s.Deploy; d != nil {
			if d.Replicas != nil {
				n := int32(*d.Replicas)
				app.Replicas = &n
			}
			ctr.Resources = composeResources(d.Resources)
		}
		ext, err := composeExtension(s.Extensions[ComposeExtensionKey])
		if err != nil {
			return nil, fmt.Errorf("compose service %s: %s: %w", name, ComposeExtensionKey, err)
		}
		if len(ext.Resources.Requests) > 0 {
			ctr.Resources.Requests = ext.Resources.Requests
		}
		if len(ext.Resources.Limits) > 0 {
			ctr.Resources.Limits = ext.Resources.Limits
		}
		app.Kind = ext.Kind
		app.Ingress = ext.Ingress
		app.Containers = []ContainerConfig{ctr}
		if len(svcPorts) > 0 {
			app.Service = &WebServiceConfig{Ports: svcPorts}
		}
		out = append(out, app)
	}
	return out, nil
}

func appendPort(ports []int32, p int32) []int32 {
	for _, e := range ports {
		if e == p {
			return ports
		}
	}
	return append(ports, p)
}

func protocolOf(p string) string {
	switch p {
	case "udp", "UDP":
		return "UDP"
	case "sctp", "SCTP":
		return "SCTP"
	default:
		return ""
	}
}

func composeResources(r types.Resources) ResourcesConfig {
	var rc ResourcesConfig
	rc.Requests = resourceMap(r.Reservations)
	rc.Limits = resourceMap(r.Limits)
	return rc
}

func resourceMap(r *types.Resource) map[string]string {
	if r == nil {
		return nil
	}
	m := map[string]string{}
	if cpus := float64(float32(r.NanoCPUs)); cpus > 0 {
		m["cpu"] = fmt.Sprintf("%dm", int64(cpus*1000+0.5))
	}
	if r.MemoryBytes > 0 {
		m["memory"] = quantity.FromBytes(int64(r.MemoryBytes))
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// composeExtension re-decodes the loosely typed extension value.
func composeExtension(v any) (ComposeExtension, error) {
	var ext ComposeExtension
	if v == nil {
		return ext, nil
	}
	b, err := yaml.Marshal(v)
	if err != nil {
		return ext, err
	}
	if err := yaml.Unmarshal(b, &ext); err != nil {
		return ext, err
	}
	return ext, nil
}
