package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

// Argument is one templated launch argument entry. In documents it is
// either a plain string or an object {"rules": [...], "value": string|[string]}.
type Argument struct {
	Values []string
	Rules  []Rule
}

// UnmarshalJSON decodes both argument forms.
func (a *Argument) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Argument{Values: []string{s}}
		return nil
	}

	var raw struct {
		Rules []Rule          `json:"rules"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("argument: %w", err)
	}
	if len(raw.Value) == 0 {
		return fmt.Errorf("argument: missing value")
	}

	var values []string
	if err := json.Unmarshal(raw.Value, &values); err != nil {
		var single string
		if err := json.Unmarshal(raw.Value, &single); err != nil {
			return fmt.Errorf("argument value must be a string or list of strings")
		}
		values = []string{single}
	}

	*a = Argument{Values: values, Rules: raw.Rules}
	return nil
}

// MarshalJSON writes the plain string form when possible.
func (a Argument) MarshalJSON() ([]byte, error) {
	if len(a.Rules) == 0 && len(a.Values) == 1 {
		return json.Marshal(a.Values[0])
	}
	return json.Marshal(struct {
		Rules []Rule   `json:"rules,omitempty"`
		Value []string `json:"value"`
	}{a.Rules, a.Values})
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z0-9_.]+)\}`)

// Expand substitutes ${name} placeholders from vars. Unknown placeholders
// are left as they are.
func Expand(s string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := m[2 : len(m)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}

// Resolve selects the arguments whose rules allow them in env and expands
// their placeholders, preserving declaration order.
func Resolve(args []Argument, env Environment, vars map[string]string) []string {
	var out []string
	for _, a := range args {
		if !Allowed(a.Rules, env) {
			continue
		}
		for _, v := range a.Values {
			out = append(out, Expand(v, vars))
		}
	}
	return out
}
