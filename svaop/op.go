// Package svaop models the SVA operator tree handed to the core by the
// upstream netlist importer. It is a tagged variant over the closed set of
// SVA opcodes the importer can produce — polymorphism over SVA operators is
// modelled as a tag plus a small data record, not a class hierarchy, so
// dispatch in the lowerer is a plain switch.
package svaop

import "fmt"

// Kind is the tag of an SVA primitive node. The set covers the full Verific
// SVA primitive pool, including opcodes that never reach the sequence
// lowerer directly (AT, DISABLE_IFF, S_EVENTUALLY are peeled off earlier)
// and ones that are always rejected as leaves (ROSE, FELL, STABLE, PAST).
type Kind int

const (
	KindUnknown Kind = iota
	KindAssert
	KindAssume
	KindCover
	KindExpect
	KindPosedge
	KindAt
	KindDisableIff
	KindSEventually
	KindOverlappedImplication
	KindNonOverlappedImplication
	KindNot
	KindFirstMatch
	KindEnded
	KindMatched
	KindConsecutiveRepeat
	KindNonConsecutiveRepeat
	KindGotoRepeat
	KindMatchItemTrigger
	KindAnd
	KindOr
	KindSeqAnd
	KindSeqOr
	KindEventOr
	KindOverlappedFollowedBy
	KindNonOverlappedFollowedBy
	KindIntersect
	KindThroughout
	KindWithin
	KindSampled
	KindRose
	KindFell
	KindStable
	KindPast
	KindMatchItemAssign
	KindSeqConcat
	KindIf
	KindRestrict
	KindTriggered
	KindStrong
	KindWeak
	KindNextTime
	KindSNextTime
	KindAlways
	KindSAlways
	KindSEventuallyProp
	KindEventually
	KindUntil
	KindSUntil
	KindUntilWith
	KindSUntilWith
	KindImplies
	KindIff
	KindAcceptOn
	KindRejectOn
	KindSyncAcceptOn
	KindSyncRejectOn
	KindImmediateAssert
	KindImmediateAssume
	KindImmediateCover
)

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var kindNames = map[Kind]string{
	KindUnknown:                  "unknown",
	KindAssert:                   "assert",
	KindAssume:                   "assume",
	KindCover:                    "cover",
	KindExpect:                   "expect",
	KindPosedge:                  "posedge",
	KindAt:                       "at",
	KindDisableIff:               "disable_iff",
	KindSEventually:              "s_eventually",
	KindOverlappedImplication:    "overlapped_implication",
	KindNonOverlappedImplication: "non_overlapped_implication",
	KindNot:                      "not",
	KindFirstMatch:               "first_match",
	KindEnded:                    "ended",
	KindMatched:                  "matched",
	KindConsecutiveRepeat:        "consecutive_repeat",
	KindNonConsecutiveRepeat:     "non_consecutive_repeat",
	KindGotoRepeat:               "goto_repeat",
	KindMatchItemTrigger:         "match_item_trigger",
	KindAnd:                      "and",
	KindOr:                       "or",
	KindSeqAnd:                   "seq_and",
	KindSeqOr:                    "seq_or",
	KindEventOr:                  "event_or",
	KindOverlappedFollowedBy:     "overlapped_followed_by",
	KindNonOverlappedFollowedBy:  "non_overlapped_followed_by",
	KindIntersect:                "intersect",
	KindThroughout:               "throughout",
	KindWithin:                   "within",
	KindSampled:                  "sampled",
	KindRose:                     "rose",
	KindFell:                     "fell",
	KindStable:                   "stable",
	KindPast:                     "past",
	KindMatchItemAssign:          "match_item_assign",
	KindSeqConcat:                "seq_concat",
	KindIf:                       "if",
	KindRestrict:                 "restrict",
	KindTriggered:                "triggered",
	KindStrong:                   "strong",
	KindWeak:                     "weak",
	KindNextTime:                 "nexttime",
	KindSNextTime:                "s_nexttime",
	KindAlways:                   "always",
	KindSAlways:                  "s_always",
	KindSEventuallyProp:          "s_eventually_prop",
	KindEventually:               "eventually",
	KindUntil:                    "until",
	KindSUntil:                   "s_until",
	KindUntilWith:                "until_with",
	KindSUntilWith:               "s_until_with",
	KindImplies:                  "implies",
	KindIff:                      "iff",
	KindAcceptOn:                 "accept_on",
	KindRejectOn:                 "reject_on",
	KindSyncAcceptOn:             "sync_accept_on",
	KindSyncRejectOn:             "sync_reject_on",
	KindImmediateAssert:          "immediate_assert",
	KindImmediateAssume:          "immediate_assume",
	KindImmediateCover:           "immediate_cover",
}

// leafKinds never drive a node in sequence position: driver resolution
// treats them as if they had no driver at all, so the sequence lowerer
// always takes the leaf path for them.
var leafKinds = map[Kind]bool{
	KindRose:   true,
	KindFell:   true,
	KindStable: true,
	KindPast:   true,
}

// IsLeaf reports whether k is always rejected as a driver.
func IsLeaf(k Kind) bool { return leafKinds[k] }

// Net is an opaque handle to a net in the upstream netlist. The core never
// looks inside it; it only ever asks an Importer to resolve it.
type Net int

// NoNet is the zero value meaning "no net attached."
const NoNet Net = 0

// Pos is a source location copied from the primitive instance's location
// attributes, used to annotate errors raised while processing this node.
type Pos struct {
	File string
	Line int
}

func (p Pos) String() string {
	if p.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Node is one SVA primitive instance: a tag plus up to four input nets, an
// optional control net, and the string range attributes used by repeat and
// concatenation nodes.
type Node struct {
	Kind Kind
	Pos  Pos

	Input, Input1, Input2, Input3, Control Net

	// Low/High carry the "sva:low"/"sva:high" range attributes found on
	// PRIM_SVA_SEQ_CONCAT and PRIM_SVA_CONSECUTIVE_REPEAT nodes. High is
	// only meaningful when HighInf is false.
	Low     int
	High    int
	HighInf bool
}

// Range parses the sentinel string "$" on a high bound as unbounded. Low is
// always taken as given; it is a fatal input error for a caller to
// construct a Node with Low < 0 or a finite High < Low.
func Range(low int, high string) (lo, hi int, inf bool, err error) {
	if low < 0 {
		return 0, 0, false, fmt.Errorf("svaop: negative low bound %d", low)
	}
	if high == "$" {
		return low, 0, true, nil
	}
	var h int
	if _, err := fmt.Sscanf(high, "%d", &h); err != nil {
		return 0, 0, false, fmt.Errorf("svaop: malformed high bound %q: %w", high, err)
	}
	if h < low {
		return 0, 0, false, fmt.Errorf("svaop: high bound %d below low bound %d", h, low)
	}
	return low, h, false, nil
}
