package utils

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUUIDParam parses a UUID path parameter.
func GetUUIDParam(ctx *gin.Context, name string) (uuid.UUID, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return uuid.Nil, errors.New("ID not found")
	}

	id, err := uuid.Parse(raw)

	if err != nil {
		return uuid.Nil, errors.New("Invalid ID")
	}

	return id, nil
}

// GetUUIDQuery parses an optional UUID query parameter; ok is false when it is absent.
func GetUUIDQuery(ctx *gin.Context, name string) (id uuid.UUID, ok bool, err error) {
	raw := strings.TrimSpace(ctx.Query(name))
	if raw == "" {
		return uuid.Nil, false, nil
	}

	id, err = uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, errors.New("Invalid " + name)
	}

	return id, true, nil
}

// GetBoolQuery parses an optional boolean query parameter.
func GetBoolQuery(ctx *gin.Context, name string) (value bool, ok bool, err error) {
	raw := strings.TrimSpace(ctx.Query(name))
	if raw == "" {
		return false, false, nil
	}

	value, err = strconv.ParseBool(raw)
	if err != nil {
		return false, false, errors.New("Invalid " + name)
	}

	return value, true, nil
}

// GetPagination reads page (1-based) and page_size, clamping page_size to max.
func GetPagination(ctx *gin.Context, defaultSize, max int) (page, size int) {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size = defaultSize
	if raw := ctx.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			size = n
		}
	}
	if size > max {
		size = max
	}

	return page, size
}
