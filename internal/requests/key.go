package requests

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Params is a flat mapping of primitive request parameters.
type Params map[string]any

// Key returns the canonical identity of a logical request. Parameter keys are
// sorted, so insertion order never changes the result.
func Key(endpoint string, params Params) string {
	if len(params) == 0 {
		return endpoint + ":{}"
	}
	// encoding/json writes map keys in sorted order.
	encoded, err := json.Marshal(map[string]any(params))
	if err == nil {
		return endpoint + ":" + string(encoded)
	}
	return endpoint + ":" + fallbackEncode(params)
}

func fallbackEncode(params Params) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%q=%v", name, params[name]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
