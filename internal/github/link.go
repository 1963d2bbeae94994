package github

import "strings"

// nextLink extracts the rel="next" target from an RFC 8288 Link header, e.g.
//
//	<https://api.github.com/organizations/1/repos?page=2>; rel="next", <...>; rel="last"
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || strings.TrimSpace(key) != "rel" {
				continue
			}
			for _, rel := range strings.Fields(strings.Trim(value, `"`)) {
				if rel == "next" {
					return target[1 : len(target)-1]
				}
			}
		}
	}
	return ""
}

// expandTemplate drops the RFC 6570 expression GitHub appends to resource
// URLs ("contents/{+path}", "commits{/sha}").
func expandTemplate(u string) string {
	if i := strings.Index(u, "{"); i != -1 {
		return u[:i]
	}
	return u
}
