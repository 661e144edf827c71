package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlSource loads the tier catalog from a YAML document of the form:
//
//	tiers:
//	  - slug: starter
//	    name: Starter
//	    product_ref: prod_123
//	    plan_recurring_interval: monthly
//	    price: {amount: 0, currency: USD}
//	    features:
//	      - slug: optimizer
//	        limited: true
//	        max_quota: 2
//	        recurring_interval: daily
type yamlSource struct {
	r io.Reader
}

// NewYAMLSource returns a Source that reads the catalog from r.
func NewYAMLSource(r io.Reader) Source {
	return &yamlSource{r: r}
}

// NewYAMLFileSource returns a Source that reads the catalog from a file path.
// The file is opened on every Load so a re-seed picks up edits.
func NewYAMLFileSource(path string) Source {
	return yamlFileSource(path)
}

type yamlFileSource string

func (p yamlFileSource) Load(ctx context.Context) (map[string]Tier, error) {
	f, err := os.Open(string(p))
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadTiers, err)
	}
	defer f.Close()

	return (&yamlSource{r: f}).Load(ctx)
}

func (s *yamlSource) Load(ctx context.Context) (map[string]Tier, error) {
	raw, err := io.ReadAll(s.r)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadTiers, err)
	}

	var doc struct {
		Tiers []Tier `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadTiers, err)
	}

	tiers := make(map[string]Tier, len(doc.Tiers))
	for _, tier := range doc.Tiers {
		if _, exists := tiers[tier.Slug]; exists {
			return nil, errors.Join(ErrFailedToLoadTiers,
				fmt.Errorf("duplicate tier slug %q", tier.Slug))
		}
		tiers[tier.Slug] = tier
	}

	return tiers, nil
}
