// Package validation checks flat string inputs such as query parameters
// against pipe-separated rules.
//
//	v := validation.Make(req.QueryAll(), validation.Rules{
//	    "scope": "sometimes|in:singleton,prototype",
//	    "lazy":  "sometimes|boolean",
//	})
//	if v.Fails() {
//	    res.ValidationError(v.Errors())
//	}
//
// # Rules
//
//   - required      field must be present and non-empty
//   - sometimes     skip the remaining rules when the field is absent
//   - nullable      same as sometimes
//   - integer       parseable as an int
//   - boolean       true/false/1/0 (case-insensitive)
//   - min:n, max:n  numeric bounds
//   - in:a,b,c      value must be in the list
//   - not_in:a,b,c  value must not be in the list
//   - regex:pattern value must match the pattern
//
// Validation stops at the first failing rule per field. Errors serialise as
//
//	{"errors": {"scope": ["The selected scope is invalid."]}}
package validation
