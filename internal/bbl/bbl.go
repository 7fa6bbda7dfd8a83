// Package bbl implements the borough-block-lot parcel key shared by every
// city property registry. Registries render the same parcel with different
// zero padding, so all keys are normalized to canonical component strings at
// construction and compared only in that form.
package bbl

import (
	"strconv"
	"strings"

	"github.com/propscope/propscope/internal/errors"
)

// Borough codes as used by the city registries.
const (
	Manhattan    = "1"
	Bronx        = "2"
	Brooklyn     = "3"
	Queens       = "4"
	StatenIsland = "5"
)

// boroughTokens maps every accepted borough spelling to its code.
// Registries disagree: the parcel inventory uses two-letter abbreviations,
// the sales ledger uses numeric codes, callers type names.
var boroughTokens = map[string]string{
	"1": Manhattan, "MANHATTAN": Manhattan, "MN": Manhattan,
	"2": Bronx, "BRONX": Bronx, "BX": Bronx,
	"3": Brooklyn, "BROOKLYN": Brooklyn, "BK": Brooklyn,
	"4": Queens, "QUEENS": Queens, "QN": Queens,
	"5": StatenIsland, "STATEN ISLAND": StatenIsland, "SI": StatenIsland,
}

// boroughNames maps codes to display names.
var boroughNames = map[string]string{
	Manhattan:    "Manhattan",
	Bronx:        "Bronx",
	Brooklyn:     "Brooklyn",
	Queens:       "Queens",
	StatenIsland: "Staten Island",
}

// Key identifies a parcel. Components are canonical strings with leading
// zeros stripped, so Keys are directly comparable with ==.
type Key struct {
	Borough string `json:"borough"`
	Block   string `json:"block"`
	Lot     string `json:"lot"`
}

// NewKey builds a normalized Key from raw registry components.
func NewKey(borough, block, lot string) Key {
	return Key{
		Borough: NormalizeComponent(borough),
		Block:   NormalizeComponent(block),
		Lot:     NormalizeComponent(lot),
	}
}

// NormalizeComponent strips leading zeros from a key component. An empty or
// all-zero component normalizes to "0" so that missing registry fields still
// produce a stable, comparable key.
func NormalizeComponent(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

// BBL renders the canonical 10-digit form: 1-digit borough, 5-digit block,
// 4-digit lot, zero padded. This is the key format the tax benefit
// registries index on.
func (k Key) BBL() string {
	return padLeft(k.Borough, 1) + padLeft(k.Block, 5) + padLeft(k.Lot, 4)
}

// String returns the 10-digit BBL form.
func (k Key) String() string {
	return k.BBL()
}

// BoroughNumber returns the borough code as an integer, 0 when the code is
// not numeric.
func (k Key) BoroughNumber() int {
	n, _ := strconv.Atoi(k.Borough)
	return n
}

// BlockNumber returns the block component as an integer, 0 when the
// component is not numeric.
func (k Key) BlockNumber() int {
	n, _ := strconv.Atoi(k.Block)
	return n
}

// LotNumber returns the lot component as an integer, 0 when the component is
// not numeric.
func (k Key) LotNumber() int {
	n, _ := strconv.Atoi(k.Lot)
	return n
}

// Validate reports whether the key components form a plausible parcel key.
func (k Key) Validate() error {
	if _, ok := boroughNames[k.Borough]; !ok {
		return errors.Newf("invalid borough code %q", k.Borough).
			Component("bbl").
			Category(errors.CategoryValidation).
			Build()
	}
	if !isDigits(k.Block) || len(k.Block) > 5 || k.Block == "0" {
		return errors.Newf("invalid block %q", k.Block).
			Component("bbl").
			Category(errors.CategoryValidation).
			Build()
	}
	if !isDigits(k.Lot) || len(k.Lot) > 4 || k.Lot == "0" {
		return errors.Newf("invalid lot %q", k.Lot).
			Component("bbl").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// ParseBBL parses the 10-digit padded form back into a normalized Key.
func ParseBBL(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if len(s) != 10 || !isDigits(s) {
		return Key{}, errors.Newf("invalid BBL %q: want 10 digits (borough+block+lot)", s).
			Component("bbl").
			Category(errors.CategoryValidation).
			Build()
	}

	key := NewKey(s[0:1], s[1:6], s[6:10])
	if err := key.Validate(); err != nil {
		return Key{}, err
	}
	return key, nil
}

// ParseBorough resolves a caller-supplied borough token to its numeric code.
// Accepted forms: the code itself, the full name, or the registry
// abbreviation, all case-insensitive. Unrecognized tokens fail before any
// remote query is issued.
func ParseBorough(token string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(token))
	if code, ok := boroughTokens[normalized]; ok {
		return code, nil
	}
	return "", errors.Newf("unrecognized borough %q", token).
		Component("bbl").
		Category(errors.CategoryValidation).
		Context("token", token).
		Build()
}

// BoroughName returns the display name for a borough code, or the code
// itself when unknown.
func BoroughName(code string) string {
	if name, ok := boroughNames[code]; ok {
		return name
	}
	return code
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
