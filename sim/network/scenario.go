package network

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes a path-routed packet network: links served by
// facilities and traffic classes that cross them in order.
type Scenario struct {
	Name    string      `yaml:"name"`
	Seed    int64       `yaml:"seed"`
	Horizon float64     `yaml:"horizon"`          // simulation ends at this time
	Warmup  float64     `yaml:"warmup,omitempty"` // statistics are reset at this time (0 = never)
	Links   []LinkSpec  `yaml:"links"`
	Classes []ClassSpec `yaml:"classes"`
}

// LinkSpec is one transmission link.
type LinkSpec struct {
	Name    string       `yaml:"name"`
	Servers int          `yaml:"servers"`
	Failure *FailureSpec `yaml:"failure,omitempty"` // nil = never fails
}

// FailureSpec drives the alternating up/down process of a link.
type FailureSpec struct {
	TimeToFail   DistSpec `yaml:"time_to_fail"`
	TimeToRepair DistSpec `yaml:"time_to_repair"`
}

// ClassSpec is one traffic class.
type ClassSpec struct {
	Name         string   `yaml:"name"`
	Priority     int      `yaml:"priority"`
	Preempt      bool     `yaml:"preempt"` // displace lower-priority packets in service
	Interarrival DistSpec `yaml:"interarrival"`
	Service      DistSpec `yaml:"service"` // transmission time per hop
	Route        []string `yaml:"route"`
	Limit        int      `yaml:"limit,omitempty"` // max packets generated (0 = until horizon)
}

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes YAML with strict field checking and validates the result.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// Validate checks names, references and parameter ranges.
func (sc *Scenario) Validate() error {
	if sc.Horizon <= 0 {
		return fmt.Errorf("horizon must be > 0, got %g", sc.Horizon)
	}
	if sc.Warmup < 0 || sc.Warmup >= sc.Horizon {
		return fmt.Errorf("warmup must be in [0, horizon), got %g", sc.Warmup)
	}
	if len(sc.Links) == 0 {
		return fmt.Errorf("at least one link must be defined")
	}
	if len(sc.Classes) == 0 {
		return fmt.Errorf("at least one class must be defined")
	}

	links := make(map[string]bool, len(sc.Links))
	for i, l := range sc.Links {
		if l.Name == "" {
			return fmt.Errorf("link %d: name is required", i)
		}
		if links[l.Name] {
			return fmt.Errorf("link %q defined twice", l.Name)
		}
		links[l.Name] = true
		if l.Servers < 1 {
			return fmt.Errorf("link %q: servers must be >= 1, got %d", l.Name, l.Servers)
		}
		if l.Failure != nil {
			if err := l.Failure.TimeToFail.Validate(); err != nil {
				return fmt.Errorf("link %q: time_to_fail: %w", l.Name, err)
			}
			if err := l.Failure.TimeToRepair.Validate(); err != nil {
				return fmt.Errorf("link %q: time_to_repair: %w", l.Name, err)
			}
		}
	}

	classes := make(map[string]bool, len(sc.Classes))
	for i, c := range sc.Classes {
		if c.Name == "" {
			return fmt.Errorf("class %d: name is required", i)
		}
		if classes[c.Name] {
			return fmt.Errorf("class %q defined twice", c.Name)
		}
		classes[c.Name] = true
		if err := c.Interarrival.Validate(); err != nil {
			return fmt.Errorf("class %q: interarrival: %w", c.Name, err)
		}
		if c.Interarrival.AlwaysZero() && c.Limit == 0 {
			return fmt.Errorf("class %q: interarrival is always 0, a limit is required", c.Name)
		}
		if err := c.Service.Validate(); err != nil {
			return fmt.Errorf("class %q: service: %w", c.Name, err)
		}
		if len(c.Route) == 0 {
			return fmt.Errorf("class %q: route must name at least one link", c.Name)
		}
		for _, hop := range c.Route {
			if !links[hop] {
				return fmt.Errorf("class %q: route references unknown link %q", c.Name, hop)
			}
		}
		if c.Limit < 0 {
			return fmt.Errorf("class %q: limit must be >= 0, got %d", c.Name, c.Limit)
		}
	}
	return nil
}
