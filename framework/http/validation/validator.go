package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// ── Types ────────────────────────────────────────────────────────────────────

// Errors holds validation errors per field.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
// e.g. Rules{"scope": "sometimes|in:singleton,prototype"}
type Rules map[string]string

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	ran    bool
}

// Make creates a new Validator.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		data:   data,
		rules:  rules,
		errors: &Errors{},
	}
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	if !v.ran {
		v.validate()
		v.ran = true
	}
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// ── Core validation loop ─────────────────────────────────────────────────────

func (v *Validator) validate() {
	for field, ruleStr := range v.rules {
		value := v.data[field]
		for rule := range strings.SplitSeq(ruleStr, "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}
			// min:3 → name=min, param=3
			name, param, _ := strings.Cut(rule, ":")
			if !v.applyRule(field, value, name, param) {
				break
			}
		}
	}
}

// applyRule returns true if the rule passes and later rules should run.
func (v *Validator) applyRule(field, value, rule, param string) bool {
	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			v.errors.add(field, fmt.Sprintf("The %s field is required.", field))
			return false
		}

	case "sometimes", "nullable":
		// Absent values skip the remaining rules.
		if value == "" {
			return false
		}

	case "integer":
		if _, err := cast.ToIntE(value); err != nil {
			v.errors.add(field, fmt.Sprintf("The %s must be an integer.", field))
			return false
		}

	case "boolean":
		if _, err := cast.ToBoolE(strings.ToLower(value)); err != nil {
			v.errors.add(field, fmt.Sprintf("The %s field must be true or false.", field))
			return false
		}

	case "min":
		n, got := cast.ToInt(param), cast.ToInt(value)
		if got < n {
			v.errors.add(field, fmt.Sprintf("The %s must be at least %d.", field, n))
			return false
		}

	case "max":
		n, got := cast.ToInt(param), cast.ToInt(value)
		if got > n {
			v.errors.add(field, fmt.Sprintf("The %s may not be greater than %d.", field, n))
			return false
		}

	case "in":
		allowed := strings.Split(param, ",")
		if !slices.ContainsFunc(allowed, func(a string) bool { return strings.TrimSpace(a) == value }) {
			v.errors.add(field, fmt.Sprintf("The selected %s is invalid.", field))
			return false
		}

	case "not_in":
		disallowed := strings.Split(param, ",")
		if slices.ContainsFunc(disallowed, func(d string) bool { return strings.TrimSpace(d) == value }) {
			v.errors.add(field, fmt.Sprintf("The selected %s is invalid.", field))
			return false
		}

	case "regex":
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			v.errors.add(field, fmt.Sprintf("The %s format is invalid.", field))
			return false
		}
	}

	return true
}
