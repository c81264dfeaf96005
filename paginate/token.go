package paginate

import "github.com/researchaccelerator-hub/innertube-miner/document"

const (
	continuationCommandKey = "continuationCommand"
	continuationKey        = "continuation"
)

// FindToken discovers the continuation token of a page.
//
// continuationCommand nodes are searched first (token at .token, then at
// .continuationCommand.token); only when none yields a token are continuation
// nodes searched (token at .continuation). Pages can carry both shapes with
// only one of them live, so this order must not change. The first token found
// wins.
func FindToken(doc document.Node, maxDepth int) (string, bool) {
	for _, m := range document.FindByKey(doc, continuationCommandKey, maxDepth) {
		if token, ok := nonEmpty(document.DigString(m, "token")); ok {
			return token, true
		}
		if token, ok := nonEmpty(document.DigString(m, continuationCommandKey, "token")); ok {
			return token, true
		}
	}

	for _, m := range document.FindByKey(doc, continuationKey, maxDepth) {
		if token, ok := nonEmpty(document.DigString(m, continuationKey)); ok {
			return token, true
		}
	}

	return "", false
}

func nonEmpty(s string, ok bool) (string, bool) {
	return s, ok && s != ""
}
