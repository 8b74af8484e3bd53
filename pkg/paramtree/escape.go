// SPDX-License-Identifier: MPL-2.0

package paramtree

import "strings"

// htmlEscaper mirrors the five-character escape table used by descriptor
// generators: double quotes become &quot; rather than a numeric reference.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes s for inclusion in an XML/HTML attribute or text node.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
