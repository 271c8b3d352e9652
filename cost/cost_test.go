package cost

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/domain/model"
)

func container(cpu, mem string) Container {
	return Container{Name: "app", Requests: map[string]string{"cpu": cpu, "memory": mem}}
}

func near(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

func TestContainerCost(t *testing.T) {
	c := NewCalculator(nil)
	tests := []struct {
		name string
		ctn  Container
		p    Provider
		want float64
		tol  float64
	}{
		{"aws 500m/512Mi", container("500m", "512Mi"), AWS, 0.03215, 0.001},
		{"defaults", Container{Name: "bare"}, AWS, 0.1*0.0535 + 0.125*0.0108, 1e-9},
		{"gcp 2/1Gi", container("2", "1Gi"), GCP, 2*0.0440 + 0.0059, 1e-9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ContainerCost(tt.ctn, tt.p)
			if err != nil {
				t.Fatalf("ContainerCost() error = %v", err)
			}
			if !near(got, tt.want, tt.tol) {
				t.Errorf("ContainerCost() = %v, want %v", got, tt.want)
			}
		})
	}

	_, err := c.ContainerCost(container("lots", "1Gi"), AWS)
	var qe *model.InvalidResourceQuantityError
	if !errors.As(err, &qe) {
		t.Fatalf("ContainerCost(lots) error = %v, want InvalidResourceQuantityError", err)
	}
	if qe.Value != "lots" || !strings.Contains(qe.Field, "requests.cpu") {
		t.Errorf("InvalidResourceQuantityError = %+v", qe)
	}
	if !errors.Is(err, model.ErrInvalidResourceQuantity) {
		t.Errorf("error %v does not wrap ErrInvalidResourceQuantity", err)
	}

	if _, err := c.ContainerCost(container("1", "1Gi"), "oracle"); !errors.Is(err, model.ErrUnknownProvider) {
		t.Errorf("ContainerCost(oracle) error = %v, want ErrUnknownProvider", err)
	}
}

func TestWorkloadCostDerivations(t *testing.T) {
	c := NewCalculator(nil)
	for _, replicas := range []int32{0, 1, 3, 17} {
		w := Workload{Kind: model.KindDeployment, Name: "web", Replicas: replicas, Containers: []Container{
			container("250m", "256Mi"),
			container("1500m", "3Gi"),
		}}
		r, err := c.WorkloadCost(w, Azure)
		if err != nil {
			t.Fatalf("WorkloadCost(replicas=%d) error = %v", replicas, err)
		}
		if !near(r.Daily, r.Hourly*24, 1e-9) || !near(r.Monthly, r.Hourly*24*30, 1e-9) || !near(r.Annual, r.Hourly*24*365, 1e-9) {
			t.Errorf("replicas=%d: derived costs inconsistent: %+v", replicas, r)
		}
		if want := float64(replicas) * (1.75*0.0490 + 3.25*0.0098); !near(r.Hourly, want, 1e-9) {
			t.Errorf("replicas=%d: Hourly = %v, want %v", replicas, r.Hourly, want)
		}
	}
}

func TestProviderOrdering(t *testing.T) {
	c := NewCalculator(nil)
	for _, ctn := range []Container{
		container("100m", "64Mi"),
		container("500m", "512Mi"),
		container("4", "16Gi"),
		{Name: "defaults"},
	} {
		w := []Workload{{Kind: model.KindDeployment, Name: "w", Replicas: 3, Containers: []Container{ctn}}}
		got, err := c.CompareProviders(w)
		if err != nil {
			t.Fatalf("CompareProviders() error = %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("CompareProviders() returned %d entries, want 3", len(got))
		}
		order := []Provider{got[0].Provider, got[1].Provider, got[2].Provider}
		if diff := cmp.Diff([]Provider{GCP, Azure, AWS}, order); diff != "" {
			t.Errorf("%s: provider order mismatch (-want +got):\n%s", ctn.Name, diff)
		}
		if got[0].Total.Monthly > got[1].Total.Monthly || got[1].Total.Monthly > got[2].Total.Monthly {
			t.Errorf("%s: comparison not ascending: %+v", ctn.Name, got)
		}
	}
}

func TestSummary(t *testing.T) {
	c := NewCalculator(nil)
	ws := []Workload{
		{Kind: model.KindDeployment, Name: "web", Namespace: "shop", Replicas: 2, Containers: []Container{container("500m", "512Mi")}},
		{Kind: model.KindDeployment, Name: "broken", Namespace: "shop", Replicas: 1, Containers: []Container{container("500m", "half")}},
		{Kind: model.KindStatefulSet, Name: "db", Namespace: "shop", Replicas: 1, Containers: []Container{container("1", "2Gi")}},
	}
	s, err := c.Summary(ws, AWS)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Provider != AWS || s.Currency != "USD" {
		t.Errorf("Summary() provider, currency = %s, %s", s.Provider, s.Currency)
	}
	if len(s.ByWorkload) != 2 || len(s.Failures) != 1 {
		t.Fatalf("Summary() = %d priced, %d failures, want 2 and 1", len(s.ByWorkload), len(s.Failures))
	}
	if f := s.Failures[0]; f.Workload != "Deployment/shop/broken" || !strings.Contains(f.Error, "half") {
		t.Errorf("Failures[0] = %+v", f)
	}
	want := s.ByWorkload["Deployment/shop/web"].Hourly + s.ByWorkload["StatefulSet/shop/db"].Hourly
	if !near(s.Total.Hourly, want, 1e-9) {
		t.Errorf("Total.Hourly = %v, want %v", s.Total.Hourly, want)
	}
	if !near(s.Total.Monthly, s.Total.Hourly*720, 1e-9) {
		t.Errorf("Total.Monthly = %v, want %v", s.Total.Monthly, s.Total.Hourly*720)
	}

	_, err = c.Summary(ws, "oracle")
	var pe *model.UnknownProviderError
	if !errors.As(err, &pe) {
		t.Errorf("Summary(oracle) error = %v, want UnknownProviderError", err)
	}
}

func TestRecommendations(t *testing.T) {
	ws := []Workload{{Kind: model.KindDeployment, Name: "api", Namespace: "shop", Replicas: 2, Containers: []Container{
		{Name: "big", Requests: map[string]string{"cpu": "4", "memory": "1Gi"}, Limits: map[string]string{"cpu": "8", "memory": "2Gi"}},
		{Name: "nolimit", Requests: map[string]string{"cpu": "250m", "memory": "256Mi"}},
		{Name: "tight", Requests: map[string]string{"cpu": "1", "memory": "1Gi"}, Limits: map[string]string{"cpu": "1", "memory": "1050Mi"}},
		{Name: "fine", Requests: map[string]string{"cpu": "500m", "memory": "512Mi"}, Limits: map[string]string{"cpu": "1", "memory": "1Gi"}},
	}}}
	recs := Recommendations(ws)
	if len(recs) != 4 {
		t.Fatalf("Recommendations() returned %d, want 4: %+v", len(recs), recs)
	}

	type brief struct {
		Type   RecommendationType
		Target string
	}
	var got []brief
	for _, r := range recs {
		got = append(got, brief{r.Type, r.Target})
	}
	want := []brief{
		{CPUOversizing, "Deployment/shop/api/big"},
		{MissingLimit, "Deployment/shop/api/nolimit"},
		{TightLimits, "Deployment/shop/api/tight"},
		{TightLimits, "Deployment/shop/api/tight"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recommendations() mismatch (-want +got):\n%s", diff)
	}
	if recs[0].Severity != SeverityMedium {
		t.Errorf("Severity = %q, want %q", recs[0].Severity, SeverityMedium)
	}
	if want := 3 * 0.0535 * 730 * 2; !near(recs[0].EstimatedMonthlySavings, want, 1e-9) {
		t.Errorf("EstimatedMonthlySavings = %v, want %v", recs[0].EstimatedMonthlySavings, want)
	}
	if !strings.Contains(recs[2].Reason, "cpu limit") || !strings.Contains(recs[3].Reason, "memory limit") {
		t.Errorf("tight limit reasons = %q, %q", recs[2].Reason, recs[3].Reason)
	}
}

func TestWorkloadFromResource(t *testing.T) {
	b, err := kube.NewBuilder("1.30")
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	pod := kube.PodConfig{Containers: []kube.ContainerConfig{{
		Name:      "app",
		Image:     "app:1",
		Resources: kube.ResourcesConfig{Requests: map[string]string{"cpu": "250m", "memory": "256Mi"}},
	}}}
	three := int32(3)
	par := int32(4)
	tests := []struct {
		name     string
		r        model.Resource
		replicas int32
	}{
		{"deployment", b.Deployment(kube.DeploymentConfig{Meta: kube.Meta{Name: "d"}, Replicas: &three, PodConfig: pod}), 3},
		{"deployment default", b.Deployment(kube.DeploymentConfig{Meta: kube.Meta{Name: "d"}, PodConfig: pod}), 1},
		{"daemonset", b.DaemonSet(kube.DaemonSetConfig{Meta: kube.Meta{Name: "ds"}, PodConfig: pod}), DaemonSetNodeEstimate},
		{"job", b.Job(kube.JobConfig{Meta: kube.Meta{Name: "j"}, Parallelism: &par, PodConfig: pod}), 4},
		{"cronjob", b.CronJob(kube.CronJobConfig{Schedule: "@daily", JobConfig: kube.JobConfig{Meta: kube.Meta{Name: "c"}, PodConfig: pod}}), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := WorkloadFromResource(tt.r)
			if !ok {
				t.Fatal("WorkloadFromResource() ok = false")
			}
			if w.Replicas != tt.replicas {
				t.Errorf("Replicas = %d, want %d", w.Replicas, tt.replicas)
			}
			if len(w.Containers) != 1 {
				t.Fatalf("Containers = %d, want 1", len(w.Containers))
			}
			if diff := cmp.Diff(map[string]string{"cpu": "250m", "memory": "256Mi"}, w.Containers[0].Requests); diff != "" {
				t.Errorf("Requests mismatch (-want +got):\n%s", diff)
			}
		})
	}

	svc := b.Service(kube.ServiceConfig{Meta: kube.Meta{Name: "s"}, Ports: []kube.ServicePortConfig{{Port: 80}}})
	if _, ok := WorkloadFromResource(svc); ok {
		t.Error("WorkloadFromResource(Service) ok = true")
	}

	docs, err := kube.DecodeManifests([]byte(`apiVersion: v1
kind: Pod
metadata: {name: p}
spec:
  containers:
  - name: c
    image: c:1
    resources: {requests: {cpu: 2, memory: 1Gi}}
`))
	if err != nil {
		t.Fatalf("DecodeManifests() error = %v", err)
	}
	ws := WorkloadsFromResources(append(docs, svc))
	if len(ws) != 1 {
		t.Fatalf("WorkloadsFromResources() = %d workloads, want 1", len(ws))
	}
	if ws[0].Replicas != 1 || ws[0].Containers[0].Requests["cpu"] != "2" {
		t.Errorf("pod workload = %+v", ws[0])
	}
}

func TestLoadPricingTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	if err := os.WriteFile(path, []byte("pricing:\n  aws:\n    cpuPerCoreHour: 0.1\n  gcp:\n    memPerGBHour: 0.002\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := LoadPricingTable(path)
	if err != nil {
		t.Fatalf("LoadPricingTable() error = %v", err)
	}
	want := DefaultPricing()
	want[AWS] = Pricing{CPUPerCoreHour: 0.1, MemPerGBHour: 0.0108}
	want[GCP] = Pricing{CPUPerCoreHour: 0.0440, MemPerGBHour: 0.002}
	if diff := cmp.Diff(want, tbl); diff != "" {
		t.Errorf("LoadPricingTable() mismatch (-want +got):\n%s", diff)
	}
	if got := DefaultPricing()[AWS].CPUPerCoreHour; got != 0.0535 {
		t.Errorf("DefaultPricing() was modified: aws cpu = %v", got)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("pricing:\n  oracle:\n    cpuPerCoreHour: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPricingTable(bad); !errors.Is(err, model.ErrUnknownProvider) {
		t.Errorf("LoadPricingTable(oracle) error = %v, want ErrUnknownProvider", err)
	}
	if _, err := LoadPricingTable(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadPricingTable(missing) error = nil")
	}
}

func TestProviderAndFormatFlags(t *testing.T) {
	var p Provider
	if err := p.Set("GCP"); err != nil || p != GCP {
		t.Errorf("Provider.Set(GCP) = %q, %v", p, err)
	}
	if err := p.Set("oracle"); !errors.Is(err, model.ErrUnknownProvider) {
		t.Errorf("Provider.Set(oracle) error = %v, want ErrUnknownProvider", err)
	}
	if diff := cmp.Diff([]Provider{AWS, Azure, GCP}, Providers()); diff != "" {
		t.Errorf("Providers() mismatch (-want +got):\n%s", diff)
	}

	var f Format
	if err := f.Set("yaml"); err != nil || f != FormatYAML {
		t.Errorf("Format.Set(yaml) = %q, %v", f, err)
	}
	if err := f.Set("xml"); err == nil {
		t.Error("Format.Set(xml) error = nil")
	}
}

func TestRender(t *testing.T) {
	c := NewCalculator(nil)
	ws := []Workload{
		{Kind: model.KindDeployment, Name: "web", Namespace: "shop", Replicas: 2, Containers: []Container{
			{Name: "app", Requests: map[string]string{"cpu": "3", "memory": "512Mi"}},
		}},
		{Kind: model.KindDeployment, Name: "broken", Namespace: "shop", Replicas: 1, Containers: []Container{container("x", "1Gi")}},
	}
	s, err := c.Summary(ws, AWS)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	comparison, err := c.CompareProviders(ws)
	if err != nil {
		t.Fatalf("CompareProviders() error = %v", err)
	}
	a := Analysis{Summary: s, Comparison: comparison, Recommendations: Recommendations(ws)}

	var text bytes.Buffer
	if err := Render(&text, a, FormatText); err != nil {
		t.Fatalf("Render(text) error = %v", err)
	}
	for _, want := range []string{
		"Cost analysis (aws, USD)",
		"Deployment/shop/web:",
		"Not priced (1):",
		"Provider comparison:",
		"[medium] cpu_oversizing Deployment/shop/web/app",
	} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("Render(text) missing %q:\n%s", want, text.String())
		}
	}

	var js bytes.Buffer
	if err := Render(&js, a, FormatJSON); err != nil {
		t.Fatalf("Render(json) error = %v", err)
	}
	var decoded Analysis
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(a.Summary.ByWorkload, decoded.Summary.ByWorkload); diff != "" {
		t.Errorf("json ByWorkload mismatch (-want +got):\n%s", diff)
	}

	var y bytes.Buffer
	if err := Render(&y, a, FormatYAML); err != nil {
		t.Fatalf("Render(yaml) error = %v", err)
	}
	for _, want := range []string{"provider: aws", "type: cpu_oversizing"} {
		if !strings.Contains(y.String(), want) {
			t.Errorf("Render(yaml) missing %q", want)
		}
	}
	if err := Render(&y, a, "xml"); err == nil {
		t.Error("Render(xml) error = nil")
	}
}
