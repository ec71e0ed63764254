package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UpdateConfig is the parsed form of a repository's .dependabot/config.yml.
type UpdateConfig struct {
	Version       int                 `yaml:"version"`
	UpdateConfigs []UpdateConfigEntry `yaml:"update_configs"`
}

// UpdateConfigEntry is one update_configs element: a package ecosystem plus
// the directory it lives in and the rules applied to its updates.
type UpdateConfigEntry struct {
	PackageManager    string       `yaml:"package_manager"`
	Directory         string       `yaml:"directory"`
	UpdateSchedule    string       `yaml:"update_schedule"`
	IgnoredUpdates    []UpdateRule `yaml:"ignored_updates"`
	AutomergedUpdates []UpdateRule `yaml:"automerged_updates"`
}

// UpdateRule wraps a match block. Only dependency_name is interpreted;
// other match fields (version requirements, update types) are parsed but
// deliberately not supported.
type UpdateRule struct {
	Match MatchRule `yaml:"match"`
}

// MatchRule selects dependencies by name, either exactly or with a
// trailing-* prefix pattern.
type MatchRule struct {
	DependencyName     string `yaml:"dependency_name"`
	VersionRequirement string `yaml:"version_requirement"`
	UpdateType         string `yaml:"update_type"`
}

var ErrInvalidUpdateConfig = errors.New("invalid update configuration")

// ParseUpdateConfig decodes and validates an update configuration document.
func ParseUpdateConfig(data []byte) (*UpdateConfig, error) {
	var cfg UpdateConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdateConfig, err)
	}
	if len(cfg.UpdateConfigs) == 0 {
		return nil, fmt.Errorf("%w: no update_configs entries", ErrInvalidUpdateConfig)
	}
	return &cfg, nil
}

// UpdatePolicy is one fully validated update policy derived from a single
// configuration entry. It is immutable once constructed; the name sets are
// computed once and reused for every dependency of the entry.
type UpdatePolicy struct {
	PackageManager PackageManager
	Directory      string
	RunsToday      bool
	IgnoreNames    []string
	AutomergeNames []string
}

// NewUpdatePolicy translates a raw configuration entry into an UpdatePolicy.
// Unrecognized package_manager or update_schedule values are terminal for
// the entry.
func NewUpdatePolicy(entry UpdateConfigEntry, today time.Time) (*UpdatePolicy, error) {
	pm, err := ParsePackageManager(entry.PackageManager)
	if err != nil {
		return nil, err
	}

	schedule, err := ParseUpdateSchedule(entry.UpdateSchedule)
	if err != nil {
		return nil, err
	}

	directory := entry.Directory
	if directory == "" {
		directory = "/"
	}

	return &UpdatePolicy{
		PackageManager: pm,
		Directory:      directory,
		RunsToday:      schedule.RunsOn(today),
		IgnoreNames:    ruleNames(entry.IgnoredUpdates),
		AutomergeNames: ruleNames(entry.AutomergedUpdates),
	}, nil
}

func ruleNames(rules []UpdateRule) []string {
	var names []string
	for _, rule := range rules {
		if rule.Match.DependencyName != "" {
			names = append(names, rule.Match.DependencyName)
		}
	}
	return names
}

// MatchesName reports whether a dependency name matches any of the given
// patterns. A pattern without a trailing "*" must equal the name exactly;
// a pattern ending in "*" matches any name starting with its prefix.
func MatchesName(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == name {
			return true
		}
	}
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "*") &&
			strings.HasPrefix(name, strings.TrimSuffix(pattern, "*")) {
			return true
		}
	}
	return false
}
