package handlers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketplace/internal/apperr"
	"marketplace/internal/store"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	// maxPage keeps (page-1)*limit inside int64 for every accepted limit.
	maxPage = math.MaxInt64/maxPageLimit + 1
)

func parsePaginationParams(pageStr, limitStr string) (store.Page, error) {
	page := store.Page{Page: 1, Limit: defaultPageLimit}

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 || p > maxPage {
			return store.Page{}, apperr.New(apperr.Validation, "invalid pagination params")
		}
		page.Page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return store.Page{}, apperr.New(apperr.Validation, "invalid pagination params")
		}
		if l > maxPageLimit {
			l = maxPageLimit
		}
		page.Limit = l
	}

	return page, nil
}

func paginated(data any, page store.Page, total int64) gin.H {
	totalPages := total / page.Limit
	if total%page.Limit != 0 {
		totalPages++
	}
	return gin.H{
		"data": data,
		"pagination": gin.H{
			"page":       page.Page,
			"limit":      page.Limit,
			"total":      total,
			"totalPages": totalPages,
		},
	}
}
