package cost

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shift/nixernetes-sub005/domain/model"
)

// Provider names a cloud pricing table.
type Provider string

const (
	AWS   Provider = "aws"
	Azure Provider = "azure"
	GCP   Provider = "gcp"
)

var _ pflag.Value = (*Provider)(nil)

// String implements pflag.Value.
func (p *Provider) String() string { return string(*p) }

// Set implements pflag.Value.
func (p *Provider) Set(s string) error {
	v := Provider(strings.ToLower(s))
	if _, ok := defaultPricing[v]; !ok {
		return &model.UnknownProviderError{Provider: s}
	}
	*p = v
	return nil
}

// Type implements pflag.Value.
func (p *Provider) Type() string { return "provider" }

// Pricing holds USD rates per hour.
type Pricing struct {
	CPUPerCoreHour float64 `json:"cpuPerCoreHour" mapstructure:"cpuPerCoreHour"`
	MemPerGBHour   float64 `json:"memPerGBHour" mapstructure:"memPerGBHour"`
}

// PricingTable maps providers to their rates.
type PricingTable map[Provider]Pricing

var defaultPricing = PricingTable{
	AWS:   {CPUPerCoreHour: 0.0535, MemPerGBHour: 0.0108},
	Azure: {CPUPerCoreHour: 0.0490, MemPerGBHour: 0.0098},
	GCP:   {CPUPerCoreHour: 0.0440, MemPerGBHour: 0.0059},
}

// DefaultPricing returns a copy of the shipped pricing table.
func DefaultPricing() PricingTable { return maps.Clone(defaultPricing) }

// Providers returns the providers of the shipped table in name order.
func Providers() []Provider {
	return slices.Sorted(maps.Keys(defaultPricing))
}

// Lookup returns the rates of p.
func (t PricingTable) Lookup(p Provider) (Pricing, error) {
	pr, ok := t[p]
	if !ok {
		return Pricing{}, &model.UnknownProviderError{Provider: string(p)}
	}
	return pr, nil
}

type pricingOverride struct {
	CPUPerCoreHour *float64 `mapstructure:"cpuPerCoreHour"`
	MemPerGBHour   *float64 `mapstructure:"memPerGBHour"`
}

type pricingFile struct {
	Pricing map[string]pricingOverride `mapstructure:"pricing"`
}

// LoadPricingTable reads rate overrides from a viper-readable file:
//
//	pricing:
//	  aws: {cpuPerCoreHour: 0.05, memPerGBHour: 0.01}
//
// Rates not named in the file keep their shipped values.
func LoadPricingTable(path string) (PricingTable, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	var f pricingFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}
	t := DefaultPricing()
	for name, o := range f.Pricing {
		p := Provider(strings.ToLower(name))
		pr, err := t.Lookup(p)
		if err != nil {
			return nil, fmt.Errorf("pricing file %s: %w", path, err)
		}
		if o.CPUPerCoreHour != nil {
			pr.CPUPerCoreHour = *o.CPUPerCoreHour
		}
		if o.MemPerGBHour != nil {
			pr.MemPerGBHour = *o.MemPerGBHour
		}
		if pr.CPUPerCoreHour < 0 || pr.MemPerGBHour < 0 {
			return nil, fmt.Errorf("pricing file %s: negative rate for %s", path, p)
		}
		t[p] = pr
	}
	return t, nil
}
