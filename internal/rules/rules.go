// Package rules evaluates the conditional inclusion rules attached to
// libraries and launch arguments.
//
// A rule list is evaluated in order. When any rule is present the decision
// starts as "exclude", and every rule whose conditions hold overwrites the
// decision with its own action: the last satisfied rule wins. An empty rule
// list always includes. The same evaluator serves library selection and
// argument selection.
package rules

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/cairn-launcher/cairn/internal/platform"
)

// Action is the effect of a satisfied rule.
type Action string

const (
	Allow    Action = "allow"
	Disallow Action = "disallow"
)

// UnmarshalJSON rejects actions other than allow and disallow.
func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("rule action: %w", err)
	}
	switch Action(s) {
	case Allow, Disallow:
		*a = Action(s)
		return nil
	default:
		return fmt.Errorf("unknown rule action %q", s)
	}
}

// OSCondition restricts a rule to an operating system. Empty fields match
// anything. Version is a regular expression matched against the OS version.
type OSCondition struct {
	Name    string `json:"name,omitempty"`
	Arch    string `json:"arch,omitempty"`
	Version string `json:"version,omitempty"`
}

// Rule is one conditional inclusion clause.
type Rule struct {
	Action   Action          `json:"action"`
	OS       *OSCondition    `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// Environment is the machine and session state rules are evaluated against.
// OS and Arch use the names found in rule documents ("windows", "osx",
// "linux"; "x86", "x86_64", "arm64", "arm32").
type Environment struct {
	OS       string
	Arch     string
	Version  string
	Features Features
}

// FromPlatform maps detected platform information into rule vocabulary.
func FromPlatform(info *platform.Info, features Features) Environment {
	env := Environment{Features: features}
	if info == nil {
		return env
	}

	switch info.OS {
	case "darwin":
		env.OS = "osx"
	default:
		env.OS = info.OS
	}

	switch info.Arch {
	case "386":
		env.Arch = "x86"
	case "amd64":
		env.Arch = "x86_64"
	case "arm":
		env.Arch = "arm32"
	default:
		env.Arch = info.Arch
	}

	env.Version = info.Version
	return env
}

// Matches reports whether every condition of the rule holds in env.
func (r Rule) Matches(env Environment) bool {
	if r.OS != nil {
		if r.OS.Name != "" && r.OS.Name != env.OS {
			return false
		}
		if r.OS.Arch != "" && r.OS.Arch != env.Arch {
			return false
		}
		if r.OS.Version != "" {
			re, err := regexp.Compile(r.OS.Version)
			if err != nil || !re.MatchString(env.Version) {
				return false
			}
		}
	}

	for key, want := range r.Features {
		if env.Features.Resolve(key) != want {
			return false
		}
	}

	return true
}

// Allowed evaluates an ordered rule list. No rules means allowed; otherwise
// the decision starts as disallowed and the last satisfied rule decides.
func Allowed(rules []Rule, env Environment) bool {
	if len(rules) == 0 {
		return true
	}

	decision := false
	for _, r := range rules {
		if r.Matches(env) {
			decision = r.Action == Allow
		}
	}
	return decision
}

// Validate checks that every rule has a known action and a compilable
// version pattern.
func Validate(rules []Rule) error {
	for i, r := range rules {
		if r.Action != Allow && r.Action != Disallow {
			return fmt.Errorf("rules[%d]: unknown action %q", i, string(r.Action))
		}
		if r.OS != nil && r.OS.Version != "" {
			if _, err := regexp.Compile(r.OS.Version); err != nil {
				return fmt.Errorf("rules[%d]: invalid os.version pattern: %w", i, err)
			}
		}
	}
	return nil
}
