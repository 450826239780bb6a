// Package classify implements the token classifier: an O(1),
// build-once-query-many mapping from a route-string token to the
// reference-data table it names, used by both the route expander and
// the query engine's autocomplete surface.
package classify

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/vfrplan/planner/pkg/rds"
)

// TokenType is the classification spec.md 4.1 assigns to a route
// token.
type TokenType int

const (
	Unknown TokenType = iota
	Airport
	Navaid
	Fix
	Airway
	Procedure
	Coordinate
)

func (t TokenType) String() string {
	switch t {
	case Airport:
		return "AIRPORT"
	case Navaid:
		return "NAVAID"
	case Fix:
		return "FIX"
	case Airway:
		return "AIRWAY"
	case Procedure:
		return "PROCEDURE"
	case Coordinate:
		return "COORDINATE"
	default:
		return "UNKNOWN"
	}
}

// Ambiguity records a single ident that resolved to more than one
// table during classifier construction, and which table won under the
// conflict-resolution precedence (spec.md 4.1: COORDINATE > PROCEDURE
// > AIRWAY > AIRPORT > NAVAID > FIX; coordinates never collide with a
// registered ident since they're recognized by shape, not lookup).
type Ambiguity struct {
	Ident    string
	Resolved TokenType
	AlsoIn   []TokenType
}

// coordLiteral matches an FAA-style lat/lon literal: 2-4 digit
// latitude, hemisphere, 3-5 digit longitude, hemisphere. Minutes
// portions are validated (not just shaped) by ParseCoordinate.
var coordLiteral = regexp.MustCompile(`^(\d{2,4})([NS])/(\d{3,5})([EW])$`)

// Classifier is an immutable, build-once-query-many index from ident
// to TokenType, precomputed from an *rds.Store so route expansion
// never does map lookups against multiple tables per token.
type Classifier struct {
	table       map[string]TokenType
	ambiguities []Ambiguity
}

// New builds a Classifier from store, applying the precedence rule to
// any ident registered in more than one table and recording each such
// collision as an Ambiguity for diagnostic reporting.
func New(store *rds.Store) *Classifier {
	c := &Classifier{table: make(map[string]TokenType)}

	seen := make(map[string][]TokenType)
	note := func(ident string, t TokenType) {
		seen[ident] = append(seen[ident], t)
	}

	for ident := range store.Fixes {
		note(ident, Fix)
	}
	for ident := range store.Navaids {
		note(ident, Navaid)
	}
	for ident := range store.Airports {
		note(ident, Airport)
	}
	for ident := range store.Airways {
		note(ident, Airway)
	}
	for ident, p := range store.Procedures {
		note(ident, Procedure)
		short := rds.ShortForm(ident)
		if short != ident {
			// Register the short form too, but never let it clobber any
			// existing registration (another procedure or an ident from
			// any other table); spec.md 4.1 decides ties in favor of the
			// canonical, fully-qualified ident.
			if _, exists := seen[short]; !exists {
				note(short, Procedure)
			} else {
				c.ambiguities = append(c.ambiguities, Ambiguity{
					Ident:    short,
					Resolved: precedenceWinner(seen[short]),
					AlsoIn:   append([]TokenType{Procedure}, seen[short]...),
				})
			}
		}
		_ = p
	}

	for ident, kinds := range seen {
		winner := precedenceWinner(kinds)
		c.table[ident] = winner
		if len(kinds) > 1 {
			c.ambiguities = append(c.ambiguities, Ambiguity{
				Ident:    ident,
				Resolved: winner,
				AlsoIn:   kinds,
			})
		}
	}

	return c
}

// precedence lists TokenType in descending priority, per spec.md 4.1.
// COORDINATE is handled separately (it's never ambiguous against a
// table lookup) so it's omitted here.
var precedence = []TokenType{Procedure, Airway, Airport, Navaid, Fix}

func precedenceWinner(kinds []TokenType) TokenType {
	for _, p := range precedence {
		for _, k := range kinds {
			if k == p {
				return p
			}
		}
	}
	if len(kinds) > 0 {
		return kinds[0]
	}
	return Unknown
}

// Ambiguities returns every ident that registered in more than one
// table, and which type the conflict-resolution rule chose.
func (c *Classifier) Ambiguities() []Ambiguity {
	return c.ambiguities
}

// Suggest returns registered idents within one or two edits of token,
// nearest first, for use in an "unknown token, did you mean" error
// message. It returns nil once the corpus is too large for the edit-
// distance scan to be useful (more than 2000 registered idents);
// callers should treat that as "no suggestion available", not an
// error.
func (c *Classifier) Suggest(token string) []string {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" || len(c.table) > 2000 {
		return nil
	}

	var within1, within2 []string
	for ident := range c.table {
		switch editDistanceAtMost2(token, ident) {
		case 1:
			within1 = append(within1, ident)
		case 2:
			within2 = append(within2, ident)
		}
	}
	slices.Sort(within1)
	slices.Sort(within2)
	return append(within1, within2...)
}

// editDistanceAtMost2 returns the Levenshtein distance between a and b
// if it is 1 or 2, or 0 otherwise (meaning "not within two edits",
// since a distance of 0 only occurs for a==b and callers never probe
// an ident against itself).
func editDistanceAtMost2(a, b string) int {
	if a == b {
		return 0
	}
	na, nb := len(a), len(b)
	if abs(na-nb) > 2 {
		return 0
	}

	prev := make([]int, nb+1)
	cur := make([]int, nb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= na; i++ {
		cur[0] = i
		rowBest := i
		for j := 1; j <= nb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j-1]+cost, cur[j-1]+1, prev[j]+1)
			if cur[j] < rowBest {
				rowBest = cur[j]
			}
		}
		if rowBest > 2 {
			return 0
		}
		prev, cur = cur, prev
	}

	if d := prev[nb]; d == 1 || d == 2 {
		return d
	}
	return 0
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Classify returns the TokenType for token. Tokens shaped like an FAA
// coordinate literal classify as Coordinate before any table lookup is
// attempted, matching spec.md 4.1's precedence (COORDINATE highest).
func (c *Classifier) Classify(token string) TokenType {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return Unknown
	}
	if coordLiteral.MatchString(token) {
		return Coordinate
	}
	if t, ok := c.table[token]; ok {
		return t
	}
	return Unknown
}

// ParseCoordinate parses an FAA coordinate literal (DDMM[N|S]/DDDMM[E|W]
// or DD[N|S]/DDD[E|W], degrees-only) into a lat/lon pair. A minutes
// field of exactly 60 rolls over to the next whole degree; any other
// minutes value above 59 is rejected.
func ParseCoordinate(token string) (lat, lon float64, ok bool) {
	token = strings.ToUpper(strings.TrimSpace(token))
	m := coordLiteral.FindStringSubmatch(token)
	if m == nil {
		return 0, 0, false
	}
	latDigits, latHemi, lonDigits, lonHemi := m[1], m[2], m[3], m[4]

	latVal, ok := parseDegMin(latDigits, 2)
	if !ok {
		return 0, 0, false
	}
	lonVal, ok := parseDegMin(lonDigits, 3)
	if !ok {
		return 0, 0, false
	}

	if latHemi == "S" {
		latVal = -latVal
	}
	if lonHemi == "W" {
		lonVal = -lonVal
	}
	if latVal < -90 || latVal > 90 || lonVal < -180 || lonVal > 180 {
		return 0, 0, false
	}
	return latVal, lonVal, true
}

// parseDegMin splits digits into a degWidth-wide degree field followed
// by an optional two-digit minutes field (absent means degrees-only),
// and returns the combined decimal value.
func parseDegMin(digits string, degWidth int) (float64, bool) {
	if len(digits) == degWidth {
		deg, err := strconv.Atoi(digits)
		if err != nil {
			return 0, false
		}
		return float64(deg), true
	}
	if len(digits) != degWidth+2 {
		return 0, false
	}
	deg, err := strconv.Atoi(digits[:degWidth])
	if err != nil {
		return 0, false
	}
	min, err := strconv.Atoi(digits[degWidth:])
	if err != nil {
		return 0, false
	}
	// spec.md 6/8: a minutes field of exactly 60 rolls to the next
	// degree rather than being rejected.
	if min == 60 {
		deg++
		min = 0
	}
	if min > 59 {
		return 0, false
	}
	return float64(deg) + float64(min)/60.0, true
}
