package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	floatList  = cty.List(cty.Number)
	boolList   = cty.List(cty.Bool)
	floatTable = cty.List(cty.List(cty.Number))
)

func decodeFloats(expr hcl.Expression, out *[]float64) (bool, error) {
	return decodeAs(expr, floatList, out)
}

func decodeBools(expr hcl.Expression, out *[]bool) (bool, error) {
	return decodeAs(expr, boolList, out)
}

func decodeMatrix(expr hcl.Expression, out *[][]float64) (bool, error) {
	return decodeAs(expr, floatTable, out)
}

// decodeAs evaluates a constant expression, converts it to ty and decodes
// it into target. It reports false, leaving target untouched, when the
// expression is null, which is how gohcl fills absent optional attributes.
func decodeAs(expr hcl.Expression, ty cty.Type, target any) (bool, error) {
	if expr == nil {
		return false, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return false, diags
	}
	if val.IsNull() {
		return false, nil
	}
	if !val.IsWhollyKnown() {
		return false, fmt.Errorf("value must be known at load time")
	}

	converted, err := convert.Convert(val, ty)
	if err != nil {
		return false, fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	if err := gocty.FromCtyValue(converted, target); err != nil {
		return false, err
	}
	return true, nil
}
