package validation_test

import (
	"encoding/json"
	"testing"

	"github.com/km-arc/go-beans/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

// pass asserts the validator passes for the given data/rules.
func pass(t *testing.T, label string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		if v.Fails() {
			t.Errorf("expected PASS, got FAIL, errors: %+v", v.Errors().Bag)
		}
	})
}

// fail asserts the validator fails with an error on the given field.
func fail(t *testing.T, label, field string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		if v.Passes() {
			t.Errorf("expected FAIL on field %q, but validator PASSED", field)
		}
		if v.Errors().First(field) == "" {
			t.Errorf("expected error on field %q, but none found. Errors: %+v", field, v.Errors().Bag)
		}
	})
}

// ── required ─────────────────────────────────────────────────────────────────

func TestValidation_Required(t *testing.T) {
	r := validation.Rules{"name": "required"}

	pass(t, "non-empty value", map[string]string{"name": "myService"}, r)
	fail(t, "empty string", "name", map[string]string{"name": ""}, r)
	fail(t, "whitespace only", "name", map[string]string{"name": "   "}, r)
	fail(t, "missing key", "name", map[string]string{}, r)
}

func TestValidation_Required_MessageFormat(t *testing.T) {
	v := validation.Make(map[string]string{"name": ""}, validation.Rules{"name": "required"})
	_ = v.Fails()
	if got, want := v.Errors().First("name"), "The name field is required."; got != want {
		t.Errorf("message: got %q want %q", got, want)
	}
}

// ── sometimes / nullable ─────────────────────────────────────────────────────

func TestValidation_Sometimes(t *testing.T) {
	r := validation.Rules{"scope": "sometimes|in:singleton,prototype"}

	pass(t, "absent", map[string]string{}, r)
	pass(t, "valid", map[string]string{"scope": "prototype"}, r)
	fail(t, "invalid", "scope", map[string]string{"scope": "request"}, r)
}

func TestValidation_Nullable(t *testing.T) {
	pass(t, "empty", map[string]string{"lazy": ""}, validation.Rules{"lazy": "nullable|boolean"})
}

// ── types ────────────────────────────────────────────────────────────────────

func TestValidation_Integer(t *testing.T) {
	r := validation.Rules{"limit": "integer"}

	pass(t, "integer", map[string]string{"limit": "10"}, r)
	fail(t, "float", "limit", map[string]string{"limit": "1.5"}, r)
	fail(t, "word", "limit", map[string]string{"limit": "ten"}, r)
}

func TestValidation_Boolean(t *testing.T) {
	r := validation.Rules{"lazy": "boolean"}

	for _, v := range []string{"true", "false", "1", "0", "TRUE"} {
		pass(t, v, map[string]string{"lazy": v}, r)
	}
	fail(t, "maybe", "lazy", map[string]string{"lazy": "maybe"}, r)
}

func TestValidation_MinMax(t *testing.T) {
	r := validation.Rules{"limit": "integer|min:1|max:100"}

	pass(t, "in range", map[string]string{"limit": "50"}, r)
	fail(t, "below", "limit", map[string]string{"limit": "0"}, r)
	fail(t, "above", "limit", map[string]string{"limit": "101"}, r)
}

// ── lists ────────────────────────────────────────────────────────────────────

func TestValidation_In(t *testing.T) {
	r := validation.Rules{"scope": "in:singleton, prototype"}

	pass(t, "singleton", map[string]string{"scope": "singleton"}, r)
	pass(t, "trimmed entry", map[string]string{"scope": "prototype"}, r)
	fail(t, "other", "scope", map[string]string{"scope": "session"}, r)
}

func TestValidation_NotIn(t *testing.T) {
	r := validation.Rules{"name": "not_in:container"}

	pass(t, "allowed", map[string]string{"name": "myService"}, r)
	fail(t, "reserved", "name", map[string]string{"name": "container"}, r)
}

func TestValidation_Regex(t *testing.T) {
	r := validation.Rules{"name": `regex:^[a-zA-Z][\w.#-]*$`}

	pass(t, "bean name", map[string]string{"name": "serviceB"}, r)
	fail(t, "leading digit", "name", map[string]string{"name": "1bean"}, r)
}

// ── Errors ───────────────────────────────────────────────────────────────────

func TestValidation_StopsAtFirstFailure(t *testing.T) {
	v := validation.Make(map[string]string{"limit": "x"}, validation.Rules{"limit": "required|integer|min:1"})
	if !v.Fails() {
		t.Fatal("expected failure")
	}
	if n := len(v.Errors().Bag["limit"]); n != 1 {
		t.Errorf("expected 1 error, got %d", n)
	}
}

func TestValidation_FailsIsIdempotent(t *testing.T) {
	v := validation.Make(map[string]string{}, validation.Rules{"name": "required"})
	_ = v.Fails()
	_ = v.Fails()
	if n := len(v.Errors().Bag["name"]); n != 1 {
		t.Errorf("expected errors not to accumulate, got %d", n)
	}
}

func TestErrors_First(t *testing.T) {
	e := &validation.Errors{}
	if e.First("missing") != "" {
		t.Error("expected empty string for unknown field")
	}
	if e.Has() {
		t.Error("empty bag must not report errors")
	}
}

func TestErrors_JSONShape(t *testing.T) {
	v := validation.Make(map[string]string{"scope": "x"}, validation.Rules{"scope": "in:singleton"})
	_ = v.Fails()

	b, err := json.Marshal(v.Errors())
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]map[string][]string
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if len(out["errors"]["scope"]) != 1 {
		t.Errorf("unexpected shape: %s", b)
	}
}
