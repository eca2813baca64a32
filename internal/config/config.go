// Package config loads and validates the reconciliation policy: the
// two parties, the classifier rules, the split overrides and the
// source files. Policy is data, not code; changing a keyword or a
// rent percentage never requires a rebuild.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/splitbooks-dev/splitbooks/internal/classify"
	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/split"
)

// Config represents the top-level splitbooks.yaml configuration.
type Config struct {
	Parties    PartiesConfig    `yaml:"parties"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Rent       RentConfig       `yaml:"rent"`
	Overrides  OverridesConfig  `yaml:"overrides"`
	Sources    []Source         `yaml:"sources,omitempty"`
}

// PartyConfig names one participant and the payer strings that map to
// them in source files.
type PartyConfig struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// PartiesConfig holds the two fixed participants.
type PartiesConfig struct {
	A PartyConfig `yaml:"a"`
	B PartyConfig `yaml:"b"`
}

// RuleConfig is one ordered classification rule. A category may appear
// in any number of rules; the first rule with a keyword match wins.
type RuleConfig struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
	Base     float64  `yaml:"base_confidence"`
}

// ClassifierConfig controls classification and the review threshold.
type ClassifierConfig struct {
	Rules          []RuleConfig `yaml:"rules"`
	ReviewKeywords []string     `yaml:"review_keywords"`
	Threshold      float64      `yaml:"confidence_threshold"`
	Fallback       float64      `yaml:"fallback_confidence"`
}

// RentConfig holds the fixed rent percentages and the expected monthly
// envelope. Amounts are decimal strings so the policy file never
// carries float noise.
type RentConfig struct {
	ShareA        string `yaml:"share_a_percent"`
	ShareB        string `yaml:"share_b_percent"`
	ExpectedTotal string `yaml:"expected_total"`
	Tolerance     string `yaml:"tolerance"`
}

// OverridesConfig lists the shared-expense override phrases.
type OverridesConfig struct {
	Reimburse []string `yaml:"reimburse"`
	Gift      []string `yaml:"gift"`
	Exclusion []string `yaml:"exclusion"`
}

// Source describes one transaction file to ingest. Payer is required
// for formats whose exports carry no payer column (one account, one
// owner); the simple format resolves the payer per row instead.
type Source struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	Payer  string `yaml:"payer,omitempty"`
}

// Load reads a splitbooks.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Roster builds the party roster from the configured names and aliases.
func (c *Config) Roster() model.Roster {
	return model.NewRoster(c.Parties.A.Name, c.Parties.B.Name,
		c.Parties.A.Aliases, c.Parties.B.Aliases)
}

// BuildClassifier builds the classifier from the configured rules.
func (c *Config) BuildClassifier() (*classify.Classifier, error) {
	rules := make([]classify.Rule, 0, len(c.Classifier.Rules))
	for i, r := range c.Classifier.Rules {
		cat, err := model.ParseCategory(r.Category)
		if err != nil {
			return nil, fmt.Errorf("classifier rule %d: %w", i, err)
		}
		rules = append(rules, classify.Rule{Category: cat, Keywords: r.Keywords, Base: r.Base})
	}
	cl, err := classify.New(rules, c.Classifier.ReviewKeywords,
		c.Classifier.Threshold, c.Classifier.Fallback)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	return cl, nil
}

// BuildCalculator builds the split calculator from the rent and
// override policy.
func (c *Config) BuildCalculator() (*split.Calculator, error) {
	pol := split.Policy{
		Roster:    c.Roster(),
		Reimburse: c.Overrides.Reimburse,
		Gift:      c.Overrides.Gift,
		Exclusion: c.Overrides.Exclusion,
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"rent.share_a_percent", c.Rent.ShareA, &pol.RentShareA},
		{"rent.share_b_percent", c.Rent.ShareB, &pol.RentShareB},
		{"rent.expected_total", c.Rent.ExpectedTotal, &pol.RentTotal},
		{"rent.tolerance", c.Rent.Tolerance, &pol.Tolerance},
	} {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid decimal %q", f.name, f.raw)
		}
		*f.dst = d
	}
	calc, err := split.New(pol)
	if err != nil {
		return nil, fmt.Errorf("split policy: %w", err)
	}
	return calc, nil
}

// Validate rejects policies the engine could not run: missing or
// colliding party names, broken classifier rules, rent shares that do
// not sum to 100, or sources naming an unknown payer.
func (c *Config) Validate() error {
	if c.Parties.A.Name == "" || c.Parties.B.Name == "" {
		return fmt.Errorf("both parties need a name")
	}
	if c.Parties.A.Name == c.Parties.B.Name {
		return fmt.Errorf("parties share the name %q", c.Parties.A.Name)
	}
	if _, err := c.BuildClassifier(); err != nil {
		return err
	}
	if _, err := c.BuildCalculator(); err != nil {
		return err
	}
	roster := c.Roster()
	for i, s := range c.Sources {
		if s.Path == "" {
			return fmt.Errorf("source %d: missing path", i)
		}
		if s.Format == "" {
			return fmt.Errorf("source %d (%s): missing format", i, s.Path)
		}
		if s.Payer != "" {
			if _, ok := roster.Resolve(s.Payer); !ok {
				return fmt.Errorf("source %d (%s): unknown payer %q", i, s.Path, s.Payer)
			}
		}
	}
	return nil
}

// Default returns a complete usable policy for two parties. The rent
// split and keyword lists are a starting point meant to be edited in
// place.
func Default(nameA, nameB string) *Config {
	return &Config{
		Parties: PartiesConfig{
			A: PartyConfig{Name: nameA},
			B: PartyConfig{Name: nameB},
		},
		Classifier: ClassifierConfig{
			Rules: []RuleConfig{
				{Category: "rent", Keywords: []string{"rent"}, Base: 1.0},
				{Category: "rent", Keywords: []string{"landlord", "lease"}, Base: 0.9},
				{Category: "settlement", Keywords: []string{"venmo"}, Base: 0.95},
				{Category: "settlement", Keywords: []string{"zelle"}, Base: 0.95},
				{Category: "settlement", Keywords: []string{"settle"}, Base: 0.9},
				{Category: "settlement", Keywords: []string{"paid back"}, Base: 0.9},
				{Category: "income", Keywords: []string{"payroll"}, Base: 0.95},
				{Category: "income", Keywords: []string{"salary"}, Base: 0.95},
				{Category: "income", Keywords: []string{"direct deposit"}, Base: 0.9},
				{Category: "personal", Keywords: []string{"personal"}, Base: 1.0},
				{Category: "shared", Keywords: []string{"groceries"}, Base: 0.9},
				{Category: "shared", Keywords: []string{"grocery"}, Base: 0.9},
				{Category: "shared", Keywords: []string{"costco"}, Base: 0.9},
				{Category: "shared", Keywords: []string{"utilities"}, Base: 0.9},
				{Category: "shared", Keywords: []string{"electric"}, Base: 0.85},
				{Category: "shared", Keywords: []string{"internet"}, Base: 0.85},
				{Category: "shared", Keywords: []string{"restaurant"}, Base: 0.85},
			},
			ReviewKeywords: []string{"?", "tbd", "todo", "not sure", "double check"},
			Threshold:      0.80,
			Fallback:       0.50,
		},
		Rent: RentConfig{
			ShareA:        "43",
			ShareB:        "57",
			ExpectedTotal: "2100.00",
			Tolerance:     "0.02",
		},
		Overrides: OverridesConfig{
			Reimburse: []string{"full reimbursement", "reimburse in full", "owes full"},
			Gift:      []string{"gift", "present", "birthday"},
			Exclusion: []string{"minus", "excluding", "less"},
		},
	}
}
