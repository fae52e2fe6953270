package buildfile

import (
	"fmt"

	"github.com/google/shlex"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

var functions = map[string]function.Function{
	"concat":   stdlib.ConcatFunc,
	"distinct": stdlib.DistinctFunc,
	"format":   stdlib.FormatFunc,
	"join":     stdlib.JoinFunc,
	"lower":    stdlib.LowerFunc,
	"split":    stdlib.SplitFunc,
	"upper":    stdlib.UpperFunc,
}

func evalContext(repository, pkg string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"repository": cty.StringVal(repository),
			"package":    cty.StringVal(pkg),
		},
		Functions: functions,
	}
}

// stringList evaluates expr as a list of strings. A missing attribute
// evaluates to null and yields nil.
func stringList(expr hcl.Expression, ectx *hcl.EvalContext, attr string) ([]string, hcl.Diagnostics) {
	val, diags := expr.Value(ectx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}

	listVal, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid " + attr,
			Detail:   fmt.Sprintf("%s must be a list of strings: %s.", attr, err),
			Subject:  expr.Range().Ptr(),
		})
	}

	var out []string
	if err := gocty.FromCtyValue(listVal, &out); err != nil {
		return nil, diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid " + attr,
			Detail:   fmt.Sprintf("%s: %s.", attr, err),
			Subject:  expr.Range().Ptr(),
		})
	}
	return out, diags
}

// commandWords evaluates a command attribute. A string is split into
// words with shell quoting rules; a list is taken word for word.
func commandWords(expr hcl.Expression, ectx *hcl.EvalContext) ([]string, hcl.Diagnostics) {
	val, diags := expr.Value(ectx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() || val.Type() != cty.String {
		return stringList(expr, ectx, "command")
	}
	if !val.IsKnown() {
		return nil, diags
	}

	words, err := shlex.Split(val.AsString())
	if err != nil {
		return nil, diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid command",
			Detail:   fmt.Sprintf("Cannot split command into words: %s.", err),
			Subject:  expr.Range().Ptr(),
		})
	}
	return words, diags
}
