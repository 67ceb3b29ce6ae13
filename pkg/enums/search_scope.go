package enums

import (
	"fmt"
	"strings"
)

// SearchScope picks which product fields a search term is matched against.
type SearchScope string

const (
	SearchScopeTitle            SearchScope = "title"
	SearchScopeTitleDescription SearchScope = "title_description"
)

var validSearchScopes = []SearchScope{
	SearchScopeTitle,
	SearchScopeTitleDescription,
}

func (s SearchScope) String() string {
	return string(s)
}

func (s SearchScope) IsValid() bool {
	for _, candidate := range validSearchScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSearchScope converts raw input into a SearchScope; blank means title.
func ParseSearchScope(value string) (SearchScope, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return SearchScopeTitle, nil
	}
	for _, candidate := range validSearchScopes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid search scope %q", value)
}
