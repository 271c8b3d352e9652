package cost

import (
	"context"
	"math"
	"testing"

	costpkg "github.com/shift/nixernetes-sub005/cost"
)

const manifests = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
  namespace: shop
spec:
  replicas: 2
  selector:
    matchLabels:
      app: web
  template:
    metadata:
      labels:
        app: web
    spec:
      containers:
        - name: web
          image: nginx
          resources:
            requests:
              cpu: 500m
              memory: 512Mi
            limits:
              cpu: 1
              memory: 1Gi
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: broken
spec:
  template:
    spec:
      containers:
        - name: app
          image: busybox
          resources:
            requests:
              cpu: lots
---
apiVersion: v1
kind: Service
metadata:
  name: web
spec:
  ports:
    - port: 80
`

func TestAnalyze(t *testing.T) {
	uc := New(nil)
	out, err := uc.Analyze(context.Background(), &AnalyzeInput{Data: []byte(manifests), Compare: true})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if out.Workloads != 2 {
		t.Errorf("Workloads = %d, want 2", out.Workloads)
	}
	s := out.Analysis.Summary
	if s.Provider != costpkg.AWS {
		t.Errorf("Provider = %s, want %s", s.Provider, costpkg.AWS)
	}
	if _, ok := s.ByWorkload["Deployment/shop/web"]; !ok {
		t.Errorf("ByWorkload has no Deployment/shop/web: %v", s.ByWorkload)
	}
	if want := 2 * 0.03215; math.Abs(s.Total.Hourly-want) > 0.002 {
		t.Errorf("Total.Hourly = %v, want about %v", s.Total.Hourly, want)
	}
	if len(s.Failures) != 1 || s.Failures[0].Workload != "Deployment/broken" {
		t.Errorf("Failures = %+v, want Deployment/broken", s.Failures)
	}

	cmp := out.Analysis.Comparison
	if len(cmp) != 3 {
		t.Fatalf("Comparison = %d entries, want 3", len(cmp))
	}
	if cmp[0].Provider != costpkg.GCP || cmp[2].Provider != costpkg.AWS {
		t.Errorf("Comparison order = %s..%s, want gcp..aws", cmp[0].Provider, cmp[2].Provider)
	}
}

func TestAnalyzeProvider(t *testing.T) {
	uc := New(nil)
	out, err := uc.Analyze(context.Background(), &AnalyzeInput{Data: []byte(manifests), Provider: costpkg.GCP})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if out.Analysis.Summary.Provider != costpkg.GCP {
		t.Errorf("Provider = %s, want gcp", out.Analysis.Summary.Provider)
	}
	if len(out.Analysis.Comparison) != 0 {
		t.Errorf("Comparison = %v, want none without Compare", out.Analysis.Comparison)
	}

	if _, err := uc.Analyze(context.Background(), &AnalyzeInput{Data: []byte(manifests), Provider: "ibm"}); err == nil {
		t.Error("Analyze(ibm) error = nil")
	}
}

func TestAnalyzePricingOverride(t *testing.T) {
	table := costpkg.DefaultPricing()
	table[costpkg.AWS] = costpkg.Pricing{CPUPerCoreHour: 1, MemPerGBHour: 0}
	out, err := New(table).Analyze(context.Background(), &AnalyzeInput{Data: []byte(manifests)})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got := out.Analysis.Summary.Total.Hourly; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Total.Hourly = %v, want 1", got)
	}
}
