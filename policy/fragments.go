package policy

import (
	"fmt"
	"strconv"

	"github.com/shift/nixernetes-sub005/domain/model"
)

func matchKinds(kinds ...model.Kind) Match {
	ks := make([]string, len(kinds))
	for i, k := range kinds {
		ks[i] = string(k)
	}
	return Match{Any: []ResourceFilter{{Resources: ResourceDescription{Kinds: ks}}}}
}

func podRule(name, message string, pattern map[string]any) Rule {
	return Rule{
		Name:     name,
		Match:    matchKinds(model.KindPod),
		Validate: &Validation{Message: message, Pattern: pattern},
	}
}

// celPodRule checks Pods with a CEL expression. Array patterns pass when
// one element matches, so rules that must hold for every container use CEL.
func celPodRule(name, message, expr, exprMessage string) Rule {
	return Rule{
		Name:  name,
		Match: matchKinds(model.KindPod),
		Validate: &Validation{
			Message: message,
			CEL:     &CEL{Expressions: []CELExpression{{Expression: expr, Message: exprMessage}}},
		},
	}
}

func containers(c map[string]any) map[string]any {
	return map[string]any{"spec": map[string]any{"containers": []any{c}}}
}

// RequireResourceLimits requires CPU and memory limits on containers.
func RequireResourceLimits() Rule {
	return podRule("require-resource-limits", "CPU and memory limits are required.",
		containers(map[string]any{
			"resources": map[string]any{
				"limits": map[string]any{"cpu": "?", "memory": "?"},
			},
		}))
}

// RequireResourceRequests requires CPU and memory requests on containers.
func RequireResourceRequests() Rule {
	return podRule("require-resource-requests", "CPU and memory requests are required.",
		containers(map[string]any{
			"resources": map[string]any{
				"requests": map[string]any{"cpu": "?", "memory": "?"},
			},
		}))
}

// BlockPrivilegedContainers rejects pods in which any container runs
// privileged.
func BlockPrivilegedContainers() Rule {
	return celPodRule("block-privileged-containers", "Privileged containers are not allowed.",
		`object.spec.containers.all(c, !has(c.securityContext) || !has(c.securityContext.privileged) || c.securityContext.privileged == false)`,
		"every container must set securityContext.privileged to false or leave it unset")
}

// RequireImageRegistry requires every container image to come from registry.
func RequireImageRegistry(registry string) Rule {
	return celPodRule("require-image-registry", fmt.Sprintf("Images must come from %s.", registry),
		fmt.Sprintf("object.spec.containers.all(c, c.image.startsWith(%s))", strconv.Quote(registry+"/")),
		"")
}

// RequireSecurityContext requires pods to run as non-root.
func RequireSecurityContext() Rule {
	return podRule("require-security-context", "Pods must set securityContext.runAsNonRoot to true.",
		map[string]any{
			"spec": map[string]any{
				"securityContext": map[string]any{"runAsNonRoot": "true"},
			},
		})
}

// RequireLabels requires every key in keys to be set on the resource.
func RequireLabels(keys ...string) Rule {
	labels := map[string]any{}
	for _, k := range keys {
		labels[k] = "?"
	}
	return podRule("require-labels", "Required labels are missing.",
		map[string]any{"metadata": map[string]any{"labels": labels}})
}

// RequireProbes requires liveness and readiness probes on containers.
func RequireProbes() Rule {
	return podRule("require-probes", "Liveness and readiness probes are required.",
		containers(map[string]any{"livenessProbe": "*", "readinessProbe": "*"}))
}

// DisallowHostNamespaces rejects pods sharing the host network, PID or IPC
// namespace.
func DisallowHostNamespaces() Rule {
	return podRule("disallow-host-namespaces", "Sharing host namespaces is not allowed.",
		map[string]any{
			"spec": map[string]any{
				"=(hostNetwork)": "false",
				"=(hostPID)":     "false",
				"=(hostIPC)":     "false",
			},
		})
}

// DisallowLatestTag requires every container image to carry an explicit tag
// other than latest.
func DisallowLatestTag() Rule {
	return celPodRule("disallow-latest-tag", "Images must use a pinned tag.",
		`object.spec.containers.all(c, c.image.contains(':') && !c.image.endsWith(':latest'))`,
		"image tag must be set and must not be latest")
}

// LimitCPURequests caps each container's CPU request at limit.
func LimitCPURequests(limit string) Rule {
	return podRule("limit-cpu-requests", fmt.Sprintf("CPU requests must not exceed %s.", limit),
		containers(map[string]any{
			"resources": map[string]any{
				"requests": map[string]any{"cpu": "<=" + limit},
			},
		}))
}

// LimitReplicas caps the replica count of scalable workloads at limit.
func LimitReplicas(limit int) Rule {
	return Rule{
		Name:  "limit-replicas",
		Match: matchKinds(model.KindDeployment, model.KindStatefulSet, model.KindReplicaSet),
		Validate: &Validation{
			Message: fmt.Sprintf("Replicas must not exceed %d.", limit),
			Pattern: map[string]any{"spec": map[string]any{"=(replicas)": fmt.Sprintf("<=%d", limit)}},
		},
	}
}

// AddDefaultLabels adds labels that are not already set.
func AddDefaultLabels(labels map[string]string) Rule {
	patch := map[string]any{}
	for k, v := range labels {
		patch["+("+k+")"] = v
	}
	return Rule{
		Name: "add-default-labels",
		Match: matchKinds(model.KindPod, model.KindDeployment, model.KindStatefulSet,
			model.KindDaemonSet, model.KindJob, model.KindCronJob, model.KindService),
		Mutate: &Mutation{PatchStrategicMerge: map[string]any{
			"metadata": map[string]any{"labels": patch},
		}},
	}
}

// AddImagePullPolicy defaults imagePullPolicy to IfNotPresent.
func AddImagePullPolicy() Rule {
	return Rule{
		Name:  "add-image-pull-policy",
		Match: matchKinds(model.KindPod),
		Mutate: &Mutation{PatchStrategicMerge: containers(map[string]any{
			"(name)":             "*",
			"+(imagePullPolicy)": "IfNotPresent",
		})},
	}
}

// GenerateNetworkPolicy creates a default-deny NetworkPolicy in every new
// Namespace.
func GenerateNetworkPolicy() Rule {
	return Rule{
		Name:  "generate-network-policy",
		Match: matchKinds(model.KindNamespace),
		Generate: &Generation{
			APIVersion:  "networking.k8s.io/v1",
			Kind:        string(model.KindNetworkPolicy),
			Name:        "default-deny",
			Namespace:   "{{request.object.metadata.name}}",
			Synchronize: true,
			Data: map[string]any{
				"spec": map[string]any{
					"podSelector": map[string]any{},
					"policyTypes": []any{"Ingress", "Egress"},
				},
			},
		},
	}
}
