package ilp

import (
	"fmt"
	"strings"
)

// Template is a GLPK constraint-fragment template carrying placeholders
// that get rewritten per-component. "Channels" is the one placeholder
// name recognized; RenderChannels rewrites it to
// "Channels_<GLPKchannelTableId>".
type Template string

// RenderChannels rewrites every occurrence of the bare "Channels" token
// in the template to "Channels_<channelTableID>". Word-boundary aware so
// it does not corrupt identifiers like "ChannelsUsed".
func (t Template) RenderChannels(channelTableID string) string {
	return replaceToken(string(t), "Channels", fmt.Sprintf("Channels_%s", channelTableID))
}

// replaceToken replaces whole-word occurrences of token in s with
// replacement, leaving longer identifiers containing token untouched.
func replaceToken(s, token, replacement string) string {
	var b strings.Builder
	i := 0
	for {
		j := strings.Index(s[i:], token)
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		start := i + j
		end := start + len(token)

		beforeOK := start == 0 || !isIdentChar(s[start-1])
		afterOK := end == len(s) || !isIdentChar(s[end])

		b.WriteString(s[i:start])
		if beforeOK && afterOK {
			b.WriteString(replacement)
		} else {
			b.WriteString(token)
		}
		i = end
	}
	return b.String()
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
