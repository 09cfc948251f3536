package internal

import (
	"net/url"
	"strings"
)

// Query modifiers, in precedence order.
const (
	QueryStylesheet = "stylesheet"
	QueryRaw        = "raw"
	QueryEdit       = "edit"
	QuerySearch     = "search"
	QueryCreate     = "create"
)

// Params carries intent specific request parameters.
type Params struct {
	Term string
}

// Resolve maps a decoded request path and raw query string to a document
// path and intent. It performs syntactic checks only; existence is left
// to the content pipeline.
func Resolve(rawPath, rawQuery string, defaultPage DocumentPath) (DocumentPath, PageIntent, Params, error) {
	p, err := resolvePath(rawPath, defaultPage)
	if err != nil {
		return "", IntentNotFound, Params{}, err
	}

	// a malformed query still yields the pairs parsed before the error
	query, _ := url.ParseQuery(rawQuery)
	has := func(key string) bool {
		_, ok := query[key]
		return ok
	}

	switch {
	case has(QueryStylesheet):
		return p, IntentStylesheet, Params{}, nil
	case has(QueryRaw):
		return p, IntentRaw, Params{}, nil
	case has(QueryEdit):
		return p, IntentEdit, Params{}, nil
	case has(QuerySearch):
		return p, IntentSearch, Params{Term: query.Get(QuerySearch)}, nil
	case has(QueryCreate):
		return p, IntentCreate, Params{}, nil
	default:
		return p, IntentView, Params{}, nil
	}
}

func resolvePath(rawPath string, defaultPage DocumentPath) (DocumentPath, error) {
	p := strings.TrimPrefix(rawPath, "/")
	switch {
	case p == "":
		return defaultPage, nil
	case strings.HasSuffix(p, "/"):
		p += defaultPage.String()
	}
	return NewDocumentPath(p)
}
