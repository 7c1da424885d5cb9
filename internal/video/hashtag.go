package video

import "strings"

// formatHashtags canonicalizes free-text tag input: comma separated,
// lowercased, inner whitespace removed, each tag prefixed with #.
// "cat, Funny Dog,#wow" becomes ["#cat", "#funnydog", "#wow"].
func formatHashtags(input string) []string {
	tags := []string{}
	for _, raw := range strings.Split(input, ",") {
		tag := strings.ToLower(strings.Join(strings.Fields(raw), ""))
		if tag == "" || tag == "#" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	return tags
}
