package httpclient

import (
	"fmt"
	"net/url"
	"sort"
)

// EncodeValues flattens a payload into form values. Lists are sent as
// "key[]" and maps as "key[sub]", nil values as empty strings.
func EncodeValues(payload map[string]any) url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		encodeValue(values, key, payload[key])
	}
	return values
}

func encodeValue(values url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
		values.Add(key, "")
	case string:
		values.Add(key, v)
	case []string:
		for _, item := range v {
			values.Add(key+"[]", item)
		}
	case []int64:
		for _, item := range v {
			values.Add(key+"[]", fmt.Sprint(item))
		}
	case []any:
		for _, item := range v {
			encodeValue(values, key+"[]", item)
		}
	case map[string]any:
		sub := EncodeValues(v)
		for subKey, items := range sub {
			for _, item := range items {
				values.Add(fmt.Sprintf("%s[%s]", key, subKey), item)
			}
		}
	case bool:
		if v {
			values.Add(key, "1")
		} else {
			values.Add(key, "")
		}
	default:
		values.Add(key, fmt.Sprint(v))
	}
}
