package validation

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilvalidation "k8s.io/apimachinery/pkg/util/validation"

	"github.com/shift/nixernetes-sub005/domain/model"
	"github.com/shift/nixernetes-sub005/internal/naming"
)

// checker accumulates errors for one manifest.
type checker struct {
	r    model.Resource
	obj  map[string]any
	errs []*Error
}

func newChecker(r model.Resource) *checker {
	return &checker{r: r, obj: r.Object()}
}

func (c *checker) add(code Code, sev Severity, field, format string, args ...any) {
	c.errs = append(c.errs, &Error{
		Kind:       c.r.Kind,
		Name:       c.r.Metadata.Name,
		Field:      field,
		Message:    fmt.Sprintf(format, args...),
		Severity:   sev,
		Code:       code,
		Suggestion: suggest(code, field),
	})
}

// addf reports a value the API server would reject.
func (c *checker) addf(field, format string, args ...any) {
	c.add(CodeInvalidValue, SeverityError, field, format, args...)
}

func (c *checker) required(field string) {
	c.add(CodeRequired, SeverityError, field, "is required")
}

func (c *checker) wrongType(field, msg string) {
	c.add(CodeInvalidType, SeverityError, field, "%s", msg)
}

// get looks up a dotted path below the document root.
func (c *checker) get(path string) (any, bool) {
	return getIn(c.obj, path)
}

func getIn(m map[string]any, path string) (any, bool) {
	v, ok, err := unstructured.NestedFieldNoCopy(m, strings.Split(path, ".")...)
	if err != nil || !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (c *checker) present(path string) bool {
	_, ok := c.get(path)
	return ok
}

// object requires path to be an object, possibly empty.
func (c *checker) object(path string) (map[string]any, bool) {
	v, ok := c.get(path)
	if !ok {
		c.required(path)
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		c.wrongType(path, "must be an object")
		return nil, false
	}
	return m, true
}

func (c *checker) nonEmptyObject(path string) (map[string]any, bool) {
	m, ok := c.object(path)
	if ok && len(m) == 0 {
		c.wrongType(path, "must not be empty")
		return nil, false
	}
	return m, ok
}

func (c *checker) nonEmptyList(path string) ([]any, bool) {
	v, ok := c.get(path)
	if !ok {
		c.required(path)
		return nil, false
	}
	l, ok := v.([]any)
	if !ok {
		c.wrongType(path, "must be a list")
		return nil, false
	}
	if len(l) == 0 {
		c.wrongType(path, "must not be empty")
		return nil, false
	}
	return l, true
}

func (c *checker) nonEmptyString(path string) (string, bool) {
	v, ok := c.get(path)
	if !ok {
		c.required(path)
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		c.wrongType(path, "must be a non-empty string")
		return "", false
	}
	return s, true
}

func (c *checker) number(path string) bool {
	v, ok := c.get(path)
	if !ok {
		c.required(path)
		return false
	}
	switch v.(type) {
	case int, int32, int64, float64:
		return true
	}
	c.wrongType(path, "must be a number")
	return false
}

// metadata checks name, namespace, label and annotation syntax.
func (c *checker) metadata() {
	name := c.r.Metadata.Name
	if name == "" {
		c.required("metadata.name")
	} else {
		var msgs []string
		switch c.r.Kind {
		case model.KindNamespace, model.KindService:
			msgs = utilvalidation.IsDNS1123Label(name)
		default:
			msgs = utilvalidation.IsDNS1123Subdomain(name)
		}
		for _, m := range msgs {
			c.addf("metadata.name", "%q: %s", name, m)
		}
	}
	if ns := c.r.Metadata.Namespace; ns != "" {
		for _, m := range utilvalidation.IsDNS1123Label(ns) {
			c.addf("metadata.namespace", "%q: %s", ns, m)
		}
	}
	for _, m := range naming.ValidateLabels(c.r.Metadata.Labels) {
		c.addf("metadata.labels", "%s", m)
	}
	for _, m := range naming.ValidateAnnotationKeys(c.r.Metadata.Annotations) {
		c.addf("metadata.annotations", "%s", m)
	}
}

var kindRules = map[model.Kind]func(*checker){
	model.KindDeployment:              podController,
	model.KindStatefulSet:             podController,
	model.KindDaemonSet:               podController,
	model.KindReplicaSet:              podController,
	model.KindJob:                     func(c *checker) { c.podTemplate("spec.template") },
	model.KindCronJob:                 cronJob,
	model.KindPod:                     func(c *checker) { c.containers("spec.containers", true) },
	model.KindService:                 service,
	model.KindConfigMap:               configData,
	model.KindSecret:                  configData,
	model.KindNetworkPolicy:           networkPolicy,
	model.KindClusterPolicy:           kyvernoPolicy,
	model.KindPolicy:                  kyvernoPolicy,
	model.KindRole:                    role,
	model.KindClusterRole:             role,
	model.KindRoleBinding:             binding,
	model.KindClusterRoleBinding:      binding,
	model.KindIngress:                 ingress,
	model.KindHorizontalPodAutoscaler: hpa,
	model.KindPodDisruptionBudget:     pdb,
	model.KindPersistentVolumeClaim:   pvc,
	model.KindPersistentVolume:        pv,
	model.KindResourceQuota:           func(c *checker) { c.nonEmptyObject("spec.hard") },
	model.KindLimitRange:              func(c *checker) { c.nonEmptyList("spec.limits") },
}

func podController(c *checker) {
	sel, selOK := c.nonEmptyObject("spec.selector.matchLabels")
	if !c.podTemplate("spec.template") || !selOK {
		return
	}
	labels, _ := getIn(c.obj, "spec.template.metadata.labels")
	lm, _ := labels.(map[string]any)
	keys := make([]string, 0, len(sel))
	for k := range sel {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		want, _ := sel[k].(string)
		if got, ok := lm[k].(string); !ok || got != want {
			c.addf("spec.selector.matchLabels", "%s=%v does not select the pod template labels", k, sel[k])
		}
	}
}

// podTemplate requires a template object at path with at least one container.
func (c *checker) podTemplate(path string) bool {
	if _, ok := c.object(path); !ok {
		return false
	}
	c.containers(path+".spec.containers", true)
	c.containers(path+".spec.initContainers", false)
	return true
}

func (c *checker) containers(path string, required bool) {
	if !required && !c.present(path) {
		return
	}
	list, ok := c.nonEmptyList(path)
	if !ok {
		return
	}
	for i, v := range list {
		field := fmt.Sprintf("%s[%d]", path, i)
		m, ok := v.(map[string]any)
		if !ok {
			c.wrongType(field, "must be an object")
			continue
		}
		if name, _ := m["name"].(string); name == "" {
			c.required(field+".name")
		} else {
			for _, msg := range utilvalidation.IsDNS1123Label(name) {
				c.addf(field+".name", "%q: %s", name, msg)
			}
		}
		if image, _ := m["image"].(string); image == "" {
			c.required(field+".image")
		}
	}
}

func cronJob(c *checker) {
	c.nonEmptyString("spec.schedule")
	c.podTemplate("spec.jobTemplate.spec.template")
}

func service(c *checker) {
	c.nonEmptyList("spec.ports")
	if t, _ := c.get("spec.type"); t == "ExternalName" {
		c.nonEmptyString("spec.externalName")
		return
	}
	c.nonEmptyObject("spec.selector")
}

func configData(c *checker) {
	if c.r.Data != nil || c.r.BinaryData != nil {
		return
	}
	if c.r.Kind == model.KindSecret && c.r.Extra["stringData"] != nil {
		return
	}
	c.add(CodeRequired, SeverityError, "data", "data or binaryData is required")
}

func networkPolicy(c *checker) {
	c.object("spec.podSelector")
	if !c.present("spec.ingress") && !c.present("spec.egress") && !c.present("spec.policyTypes") {
		c.add(CodeRequired, SeverityError, "spec", "one of ingress, egress or policyTypes is required")
	}
}

func kyvernoPolicy(c *checker) {
	rules, ok := c.nonEmptyList("spec.rules")
	if !ok {
		return
	}
	for i, v := range rules {
		field := fmt.Sprintf("spec.rules[%d]", i)
		m, ok := v.(map[string]any)
		if !ok {
			c.wrongType(field, "must be an object")
			continue
		}
		if name, _ := m["name"].(string); name == "" {
			c.required(field+".name")
		}
		n := 0
		for _, k := range []string{"validate", "mutate", "generate"} {
			if m[k] != nil {
				n++
			}
		}
		if n != 1 {
			c.addf(field, "exactly one of validate, mutate or generate is required, found %d", n)
		}
	}
}

func role(c *checker) {
	v, ok := c.get("rules")
	if !ok {
		c.required("rules")
		return
	}
	if _, ok := v.([]any); !ok {
		c.wrongType("rules", "must be a list")
	}
}

func binding(c *checker) {
	if _, ok := c.object("roleRef"); ok {
		c.nonEmptyString("roleRef.kind")
		c.nonEmptyString("roleRef.name")
	}
	c.nonEmptyList("subjects")
}

func ingress(c *checker) {
	if c.present("spec.defaultBackend") {
		return
	}
	if v, ok := c.get("spec.rules"); ok {
		if l, ok := v.([]any); ok && len(l) > 0 {
			return
		}
	}
	c.add(CodeRequired, SeverityError, "spec", "rules or defaultBackend is required")
}

func hpa(c *checker) {
	if _, ok := c.object("spec.scaleTargetRef"); ok {
		c.nonEmptyString("spec.scaleTargetRef.kind")
		c.nonEmptyString("spec.scaleTargetRef.name")
	}
	c.number("spec.maxReplicas")
}

func pdb(c *checker) {
	c.object("spec.selector")
	minOK, maxOK := c.present("spec.minAvailable"), c.present("spec.maxUnavailable")
	if minOK == maxOK {
		c.add(CodeRequired, SeverityError, "spec", "exactly one of minAvailable or maxUnavailable is required")
	}
}

func pvc(c *checker) {
	c.nonEmptyList("spec.accessModes")
	c.storage("spec.resources.requests.storage")
}

func pv(c *checker) {
	c.storage("spec.capacity.storage")
	c.nonEmptyList("spec.accessModes")
}

func (c *checker) storage(path string) {
	v, ok := c.get(path)
	if !ok {
		c.required(path)
		return
	}
	switch v.(type) {
	case string, int64, float64:
	default:
		c.wrongType(path, "must be a quantity")
	}
}
