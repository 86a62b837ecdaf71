package services

import "strings"

// disqualifyingKeywords are market slang marking listings whose asking price
// does not reflect the plain item: scrolled/upgraded gear, bundle sales,
// event giveaways. A listing whose comment mentions any of these is recorded
// INACTIVE regardless of its price.
var disqualifyingKeywords = []string{
	"작",   // scrolled/upgraded item
	"놀장",  // "toy hammer"-boosted gear
	"공속",  // attack-speed modded
	"묶음",  // bundle sale
	"이벤트", // event giveaway listing
}

// IsCommentAcceptable reports whether a listing's free-text comment is clean
// enough for its price to count. Empty comments are acceptable.
func IsCommentAcceptable(comment string) bool {
	if comment == "" {
		return true
	}
	for _, kw := range disqualifyingKeywords {
		if strings.Contains(comment, kw) {
			return false
		}
	}
	return true
}
