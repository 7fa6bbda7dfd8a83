//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// RawFilterInterpolation detects registry filter text assembled with
// fmt.Sprintf.
//
// Interpolating values into filter strings skips the field-name validation
// and literal escaping the predicate constructors perform, which is how
// query injection happens:
//
//	where := fmt.Sprintf("address = '%s'", input)  // input may contain '
//
// Filters are built from predicates instead:
//
//	socrata.Eq("address", input)
//	socrata.And(socrata.StartsWith("address", prefix), socrata.Eq("borocode", code))
func RawFilterInterpolation(m dsl.Matcher) {
	// Quoted interpolation in a comparison or call-argument position is the
	// injection shape; plain '%s' in log messages is left alone.
	m.Match(
		`fmt.Sprintf($f, $*args)`,
	).
		Where(m["f"].Text.Matches(`[=(,] ?'%[sdvq]'`)).
		Report("filter text with interpolated literals; build the filter from socrata predicate constructors so field names are validated and literals escaped")

	m.Match(
		`$q.Set("$where", fmt.Sprintf($*_))`,
	).
		Report("never set $where from fmt.Sprintf; render a socrata.Predicate instead")
}

// HandRolledParcelKey detects manual assembly of the ten-digit
// borough-block-lot form.
//
// The padded rendering lives in exactly one place:
//
//	key.BBL()  // 1-digit borough, 5-digit block, 4-digit lot
//
// Hand-rolled copies drift on zero-padding and break the tax benefit
// registry joins, which index on the padded form.
func HandRolledParcelKey(m dsl.Matcher) {
	m.Match(
		`fmt.Sprintf($f, $*args)`,
	).
		Where(m["f"].Text.Matches(`%[0-9]*[ds]%05[ds]%04[ds]`)).
		Report("hand-rolled BBL assembly; render parcel keys with Key.BBL()")
}
