package sanitize

import (
	"regexp"
	"strings"
)

var (
	styleBlockRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
)

// entityReplacements are applied in order, one full pass each.
var entityReplacements = [][2]string{
	{"&nbsp;", " "},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
}

// StripHTML reduces an HTML document to plain text. Unbalanced brackets are
// tolerated: anything from a '<' to the next '>' is dropped, and a '<' with no
// closing '>' is left as is.
func StripHTML(html string) string {
	s := styleBlockRe.ReplaceAllString(html, "")
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllString(s, "")
	for _, r := range entityReplacements {
		s = strings.ReplaceAll(s, r[0], r[1])
	}
	return s
}
