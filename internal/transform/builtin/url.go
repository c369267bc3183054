package builtin

import (
	"regexp"
	"strings"

	"lbship/internal/transform"
)

// uriParts is the generic URI split of RFC 3986 appendix B. It matches every
// string, so URLs with bad escapes, odd ports or control characters still
// decompose.
var uriParts = regexp.MustCompile(`(?s)^(?:([^:/?#]+):)?(?://([^/?#]*))?([^?#]*)(?:\?([^#]*))?(?:#.*)?$`)

// URLParser replaces the `url` field with host, port, path and query_string.
// Parts are taken verbatim from the raw URL, nothing is re-encoded. The
// network location (userinfo included) is split on its last colon; without a
// colon the whole location is the host and port is empty. A missing url
// yields empty fields.
type URLParser struct{}

func (URLParser) Accepts() transform.Shape  { return transform.ShapeRecord }
func (URLParser) Produces() transform.Shape { return transform.ShapeRecord }

func (URLParser) Transform(_ transform.Event, in any) (any, error) {
	rec, err := transform.AsRecord(in)
	if err != nil {
		return nil, err
	}

	raw := ""
	if v, ok := rec["url"]; ok && v != nil {
		raw = stringify(v)
	}
	netloc, path, query := splitURL(raw)
	host, port := splitHostPort(netloc)

	out := rec.Clone()
	delete(out, "url")
	out["host"] = host
	out["port"] = port
	out["path"] = path
	out["query_string"] = query
	return out, nil
}

func splitURL(raw string) (netloc, path, query string) {
	m := uriParts.FindStringSubmatch(raw)
	if m == nil {
		return "", raw, ""
	}
	return m[2], stripParams(m[3]), m[4]
}

// stripParams drops the ";params" suffix of the last path segment, which is
// not part of the path.
func stripParams(path string) string {
	i := strings.LastIndexByte(path, '/')
	if j := strings.IndexByte(path[i+1:], ';'); j >= 0 {
		return path[:i+1+j]
	}
	return path
}

func splitHostPort(netloc string) (host, port string) {
	i := strings.LastIndexByte(netloc, ':')
	if i < 0 {
		return netloc, ""
	}
	return netloc[:i], netloc[i+1:]
}
