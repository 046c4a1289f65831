package utils

import "strings"

const (
	CategoriesCachePrefix = "categories:"
	GurusCachePrefix      = "gurus:"
)

func BuildCategoriesListCacheKey() string {
	return CategoriesCachePrefix + "list:v1"
}

func BuildGurusListCacheKey(eraID *string) string {
	era := ""
	if eraID != nil {
		era = strings.ToLower(strings.TrimSpace(*eraID))
	}

	return GurusCachePrefix + "list:v1:era=" + era
}

func BuildGuruDetailCacheKey(id string) string {
	return GurusCachePrefix + "detail:v1:" + strings.ToLower(id)
}
