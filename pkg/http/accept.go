package http

import (
	"net/http"
	"sort"

	"github.com/golang/gddo/httputil/header"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeYAML = "application/yaml"
	ContentTypeText = "text/plain"
)

// negotiateContentType picks a content type based on the Accept
// header from a request, and a supplied list of available content
// types in order of preference. Among the acceptable types, a higher
// quality (`q`) wins; on a tie, the earlier preference wins. If
// nothing acceptable is available, the result is "".
func negotiateContentType(r *http.Request, orderedPref []string) string {
	specs := header.ParseAccept(r.Header, "Accept")
	if len(specs) == 0 {
		return orderedPref[0]
	}

	var acceptable []header.AcceptSpec
	for _, spec := range specs {
		if spec.Value == "*/*" && spec.Q > 0 {
			spec.Value = orderedPref[0]
		}
		if rank(orderedPref, spec.Value) < len(orderedPref) && spec.Q > 0 {
			acceptable = append(acceptable, spec)
		}
	}
	if len(acceptable) == 0 {
		return ""
	}
	sort.SliceStable(acceptable, func(i, j int) bool {
		if acceptable[i].Q == acceptable[j].Q {
			return rank(orderedPref, acceptable[i].Value) < rank(orderedPref, acceptable[j].Value)
		}
		return acceptable[i].Q > acceptable[j].Q
	})
	return acceptable[0].Value
}

// rank gives the position of search in ss, or len(ss) if it's not
// there, so that "not found" sorts after everything found.
func rank(ss []string, search string) int {
	for i, s := range ss {
		if s == search {
			return i
		}
	}
	return len(ss)
}
