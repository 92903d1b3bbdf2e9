package handlers

import (
	"strconv"
	"strings"
)

const (
	defaultFeedPage  = 1
	defaultFeedLimit = 10

	sortLatest        = "latest"
	sortMostLiked     = "mostLiked"
	sortMostCommented = "mostCommented"
)

type feedQueryParams struct {
	Page   int
	Limit  int
	Offset int
	Sort   string
}

// parseFeedQueryParams coerces the raw query values. Non-numeric or missing
// page/limit fall back to page=1, limit=10; an unknown sort falls back to
// latest. No upper bound is applied to limit here.
func parseFeedQueryParams(rawPage, rawLimit, rawSort string) feedQueryParams {
	page := defaultFeedPage
	if parsed, err := strconv.Atoi(strings.TrimSpace(rawPage)); err == nil && parsed > 0 {
		page = parsed
	}

	limit := defaultFeedLimit
	if parsed, err := strconv.Atoi(strings.TrimSpace(rawLimit)); err == nil && parsed > 0 {
		limit = parsed
	}

	sort := strings.TrimSpace(rawSort)
	switch sort {
	case sortMostLiked, sortMostCommented:
	default:
		sort = sortLatest
	}

	return feedQueryParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
		Sort:   sort,
	}
}

// orderClauseForSort maps the whitelisted sort keys onto ORDER BY clauses.
// A single key only: ties fall to database order, so pages recomputed
// against a live collection may drift between requests.
func orderClauseForSort(sort string) string {
	switch sort {
	case sortMostLiked:
		return "likes_count DESC"
	case sortMostCommented:
		return "comments_count DESC"
	default:
		return "p.created_at DESC"
	}
}
