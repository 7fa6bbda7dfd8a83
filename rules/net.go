//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// JoinHostPort detects fmt.Sprintf patterns for host:port and suggests
// net.JoinHostPort, which wraps IPv6 addresses in brackets where Sprintf
// does not.
//
// Only integer ports are flagged; string "host" + ":" + "port" concatenation
// is too common for non-network strings (cache keys, identifiers) to flag.
//
// See: https://pkg.go.dev/net#JoinHostPort
func JoinHostPort(m dsl.Matcher) {
	m.Match(
		`fmt.Sprintf("%s:%d", $host, $port)`,
		`fmt.Sprintf("%v:%d", $host, $port)`,
	).
		Report("use net.JoinHostPort($host, strconv.Itoa($port)) instead of fmt.Sprintf for host:port (handles IPv6 correctly)")
}

// ErrorBeforeUse detects os.Open-style results used before the error check.
//
//	f, err := os.Open(path)
//	name := f.Name()  // panics when err != nil
//	if err != nil { ... }
//
// Go 1.25 fixed a compiler bug (Go 1.21-1.24) where nil checks were
// incorrectly delayed, so code in this shape that used to limp along now
// correctly panics.
//
// See: https://go.dev/doc/go1.25#compiler
func ErrorBeforeUse(m dsl.Matcher) {
	m.Match(
		`$f, $err := os.Open($path); $_ := $f.$method($*_); if $err != nil { $*_ }`,
		`$f, $err := os.Create($path); $_ := $f.$method($*_); if $err != nil { $*_ }`,
		`$f, $err := os.OpenFile($*_); $_ := $f.$method($*_); if $err != nil { $*_ }`,
	).
		Report("potential nil pointer: $f may be nil if $err != nil; check error before using $f.$method()")
}
