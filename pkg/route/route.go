// Package route implements the route expander: a small context-
// sensitive compiler that turns a route string into an ordered
// waypoint sequence, expanding airways and procedures as it goes.
package route

import (
	"fmt"
	"strings"

	"github.com/vfrplan/planner/internal/verr"
	"github.com/vfrplan/planner/pkg/classify"
	"github.com/vfrplan/planner/pkg/rds"
)

// Result is what Expand returns: the resolved waypoint sequence plus
// whatever the expansion accumulated along the way. No exception
// crosses this boundary; every problem is an entry in Errors or
// Warnings.
type Result struct {
	Waypoints []rds.Waypoint
	Warnings  []string
	Errors    []string
}

// Expander turns route strings into waypoint sequences against a
// fixed RDS snapshot and a classifier built from the same snapshot.
type Expander struct {
	store      *rds.Store
	classifier *classify.Classifier
}

// New builds an Expander. store and c must agree (c should have been
// built from store, or an equivalent snapshot), or token
// classification and RDS lookups can disagree and surface as
// DataMissing errors.
func New(store *rds.Store, c *classify.Classifier) *Expander {
	return &Expander{store: store, classifier: c}
}

// directMarker is the reserved token meaning "no airway/procedure
// links the surrounding waypoints; proceed direct."
const directMarker = "DCT"

// Expand lexes, classifies, and expands routeString. Expansion is
// pure: identical (routeString, RDS) always produces an identical
// Result.
func (e *Expander) Expand(routeString string) Result {
	c := &verr.Collector{}

	tokens := strings.Fields(routeString)
	if len(tokens) == 0 {
		c.Errorf("route string is empty")
		return Result{Errors: c.Errors(), Warnings: c.Warnings()}
	}

	var waypoints []rds.Waypoint

tokenLoop:
	for i := 0; i < len(tokens); i++ {
		tok := strings.ToUpper(tokens[i])
		c.Push(fmt.Sprintf("token %d (%s)", i, tok))

		if tok == directMarker {
			c.Pop()
			continue tokenLoop
		}

		if strings.Contains(tok, ".") && strings.Count(tok, ".") == 1 {
			wps, ok := e.expandTransitionProcedure(tok, waypoints, c)
			c.Pop()
			if !ok {
				continue tokenLoop // per-token ProcedureContext error; resync at next token
			}
			waypoints = appendDeduped(waypoints, wps)
			continue tokenLoop
		}

		for _, a := range e.classifier.Ambiguities() {
			if a.Ident == tok {
				c.Warnf("ambiguous token %s resolved as %s", tok, a.Resolved)
				break
			}
		}

		switch e.classifier.Classify(tok) {
		case classify.Airway:
			wps, ok := e.expandAirway(tok, i, tokens, waypoints, c)
			c.Pop()
			if !ok {
				continue tokenLoop // per-token AirwayContext error; resync at next token
			}
			waypoints = append(waypoints, wps...)

		case classify.Procedure:
			wps, ok := e.resolveProcedure(tok, c)
			c.Pop()
			if !ok {
				continue tokenLoop
			}
			waypoints = appendDeduped(waypoints, wps)

		case classify.Airport, classify.Navaid, classify.Fix:
			wp, ok := e.store.LookupWaypoint(tok)
			if !ok {
				c.Errorf("data missing: %s classified as known but absent from RDS", tok)
				c.Pop()
				continue tokenLoop
			}
			waypoints = appendOne(waypoints, wp)
			c.Pop()

		case classify.Coordinate:
			lat, lon, ok := classify.ParseCoordinate(tok)
			if !ok {
				c.Errorf("malformed coordinate literal %q", tok)
				c.Pop()
				break tokenLoop // InputSyntax: halt, return what's resolved so far
			}
			waypoints = appendOne(waypoints, &rds.Coordinate{Literal: tok, Lat: lat, Lon: lon})
			c.Pop()

		default:
			if suggestions := e.classifier.Suggest(tok); len(suggestions) > 0 {
				c.Errorf("unknown token %q (did you mean %s?)", tok, strings.Join(suggestions, ", "))
			} else {
				c.Errorf("unknown token %q", tok)
			}
			c.Pop()
			break tokenLoop // UNKNOWN: halt, return what's resolved so far
		}
	}

	return Result{Waypoints: waypoints, Errors: c.Errors(), Warnings: c.Warnings()}
}

// expandAirway resolves "AIRWAY A" at position i, using the last
// already-resolved waypoint as X and the following token as Y, per
// spec.md 4.4. It reports ok=false (a per-token AirwayContext error
// already recorded) if the expansion can't proceed.
func (e *Expander) expandAirway(tok string, i int, tokens []string, waypoints []rds.Waypoint, c *verr.Collector) ([]rds.Waypoint, bool) {
	if len(waypoints) == 0 {
		c.Errorf("airway %s has no preceding fix", tok)
		return nil, false
	}
	if i+1 >= len(tokens) {
		c.Errorf("airway %s has no following fix", tok)
		return nil, false
	}

	x := waypoints[len(waypoints)-1].Ident()
	y := strings.ToUpper(tokens[i+1])
	switch e.classifier.Classify(y) {
	case classify.Airport, classify.Navaid, classify.Fix, classify.Coordinate:
	default:
		c.Errorf("airway %s must be followed by a fix, navaid, airport, or coordinate, got %q", tok, y)
		return nil, false
	}

	airways := e.store.Airways[tok]
	if len(airways) == 0 {
		c.Errorf("airway %s not found in RDS", tok)
		return nil, false
	}
	if len(airways) > 1 {
		c.Warnf("airway %s registered at both LOW and HIGH levels; using %s", tok, airways[0].Level)
	}
	aw := airways[0]

	if x == y {
		c.Warnf("airway %s: endpoints %s and %s are the same fix, nothing to expand", tok, x, y)
		return nil, true
	}

	between, ok := aw.Between(x, y)
	if !ok {
		if _, memberX := indexOf(aw.Fixes, x); !memberX {
			c.Errorf("airway %s does not contain fix %s", tok, x)
		} else {
			c.Errorf("airway %s does not contain fix %s", tok, y)
		}
		return nil, false
	}

	return e.resolveIdents(between, c)
}

// expandTransitionProcedure handles a "TRANSITION.PROCEDURE" token.
// The left-hand side names a transition; the right-hand side is
// classified per spec.md 4.4.
func (e *Expander) expandTransitionProcedure(tok string, waypoints []rds.Waypoint, c *verr.Collector) ([]rds.Waypoint, bool) {
	parts := strings.SplitN(tok, ".", 2)
	transName, procIdent := parts[0], parts[1]

	if e.classifier.Classify(procIdent) != classify.Procedure {
		c.Errorf("unknown token %q", tok)
		return nil, false
	}

	p, shortForm := e.findProcedure(procIdent)
	if p == nil {
		c.Errorf("procedure %s not found in RDS", procIdent)
		return nil, false
	}
	if shortForm {
		c.Warnf("procedure %s resolved via short form %s", p.Ident, procIdent)
	}

	trans, ok := p.Transition(transName)
	if !ok {
		c.Errorf("transition %s not in procedure %s's transition list", transName, p.Ident)
		return nil, false
	}

	combined := joinDeduped(trans.Fixes, p.Body)
	return e.resolveIdents(combined, c)
}

// resolveProcedure handles a bare procedure token (no transition).
func (e *Expander) resolveProcedure(tok string, c *verr.Collector) ([]rds.Waypoint, bool) {
	p, shortForm := e.findProcedure(tok)
	if p == nil {
		c.Errorf("procedure %s not found in RDS", tok)
		return nil, false
	}
	if shortForm {
		c.Warnf("procedure %s resolved via short form %s", p.Ident, tok)
	}
	return e.resolveIdents(p.Body, c)
}

// findProcedure resolves ident against the canonical Procedures table,
// falling back to short-form matching (spec.md 4.1's "letters then
// trailing digits" rule) when no canonical entry exists.
func (e *Expander) findProcedure(ident string) (p *rds.Procedure, viaShortForm bool) {
	if p, ok := e.store.Procedures[ident]; ok {
		return p, false
	}
	var match *rds.Procedure
	for _, candidate := range e.store.Procedures {
		if rds.ShortForm(candidate.Ident) == ident {
			if match == nil || candidate.Ident < match.Ident {
				match = candidate
			}
		}
	}
	if match != nil {
		return match, true
	}
	return nil, false
}

// resolveIdents resolves a slice of bare idents against the RDS,
// stopping at the first miss and reporting ok=false: a classified-but-
// unresolvable ident indicates the classifier and RDS have drifted
// apart (DataMissing). Expand records that error against the current
// token and resumes at the next token; it does not halt the expansion.
func (e *Expander) resolveIdents(idents []string, c *verr.Collector) ([]rds.Waypoint, bool) {
	out := make([]rds.Waypoint, 0, len(idents))
	for _, ident := range idents {
		wp, ok := e.store.LookupWaypoint(ident)
		if !ok {
			c.Errorf("data missing: %s classified as known but absent from RDS", ident)
			return out, false
		}
		out = append(out, wp)
	}
	return out, true
}

// joinDeduped concatenates transitionFixes and body, dropping body's
// leading entry if it duplicates transitionFixes' trailing entry (the
// junction fix), per spec.md 4.4.
func joinDeduped(transitionFixes, body []string) []string {
	if len(transitionFixes) > 0 && len(body) > 0 && transitionFixes[len(transitionFixes)-1] == body[0] {
		out := make([]string, 0, len(transitionFixes)+len(body)-1)
		out = append(out, transitionFixes...)
		out = append(out, body[1:]...)
		return out
	}
	out := make([]string, 0, len(transitionFixes)+len(body))
	out = append(out, transitionFixes...)
	out = append(out, body...)
	return out
}

// appendDeduped appends newWaypoints to waypoints, dropping
// newWaypoints' leading entry if it duplicates waypoints' trailing
// entry, per spec.md 4.4's leading-duplicate rule for procedure and
// transition.procedure expansion.
func appendDeduped(waypoints, newWaypoints []rds.Waypoint) []rds.Waypoint {
	if len(waypoints) > 0 && len(newWaypoints) > 0 && waypoints[len(waypoints)-1].Ident() == newWaypoints[0].Ident() {
		newWaypoints = newWaypoints[1:]
	}
	return append(waypoints, newWaypoints...)
}

// appendOne appends wp unless it duplicates the ident of the waypoint
// already at the tail of the list: a route string that re-states an
// airway's or procedure's own endpoint as the next bare token (common
// when a STAR body already terminates at the destination airport)
// names no new waypoint.
func appendOne(waypoints []rds.Waypoint, wp rds.Waypoint) []rds.Waypoint {
	if len(waypoints) > 0 && waypoints[len(waypoints)-1].Ident() == wp.Ident() {
		return waypoints
	}
	return append(waypoints, wp)
}

func indexOf(s []string, v string) (int, bool) {
	for i, x := range s {
		if x == v {
			return i, true
		}
	}
	return -1, false
}
