package assets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

var subpathToken = regexp.MustCompile(`\{([a-zA-Z]+)(?::([a-zA-Z0-9_\-]+))?\}`)

// SourcePrefix prefixes folder ids in upload location sources.
const SourcePrefix = "folder:"

// ParseSource extracts the folder id from a "folder:{id}" source key.
func ParseSource(source string) (int64, error) {
	if !strings.HasPrefix(source, SourcePrefix) {
		return 0, fmt.Errorf("source %q is not a folder source", source)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(source, SourcePrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("source %q does not reference a folder id", source)
	}
	return id, nil
}

// RenderSubpath substitutes entry tokens into a subpath template. A token that
// is unknown or resolves to nothing leaves an empty segment behind, which
// ValidSubpath then rejects.
func RenderSubpath(template string, entry *models.Entry) string {
	return subpathToken.ReplaceAllStringFunc(template, func(token string) string {
		parts := subpathToken.FindStringSubmatch(token)
		if entry == nil {
			return ""
		}

		switch parts[1] {
		case "id":
			if entry.ID == 0 {
				return ""
			}
			return strconv.FormatInt(entry.ID, 10)
		case "formId":
			return strconv.FormatInt(entry.FormID, 10)
		case "formHandle":
			return entry.FormHandle
		case "siteId":
			return strconv.FormatInt(entry.SiteID, 10)
		case "statusId":
			if entry.StatusID == 0 {
				return ""
			}
			return strconv.FormatInt(entry.StatusID, 10)
		case "field":
			return valueToPathSegment(entry.GetValue(parts[2]))
		default:
			return ""
		}
	})
}

func valueToPathSegment(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case models.SingleOptionValue:
		return v.Value
	case models.MultiOptionValue:
		return strings.Join(v.Values(), "-")
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// ValidSubpath rejects empty paths and paths with leading, trailing or doubled slashes.
func ValidSubpath(p string) bool {
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return false
	}
	return !strings.Contains(p, "//")
}

// ChildPath joins a folder path and a child name into a folder path with a trailing slash.
func ChildPath(parentPath, name string) string {
	return strings.TrimLeft(strings.TrimRight(parentPath, "/")+"/"+name, "/") + "/"
}
