package utils

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/trade-approval/internal/model"
)

// PaginationParams holds pagination-related query parameters
type PaginationParams struct {
	Page  int
	Limit int
}

// ParsePaginationParams parses and validates pagination parameters from the
// request with support for default and maximum limits
func ParsePaginationParams(c *gin.Context, defaultLimit int, maxLimit int) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))

	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = defaultLimit
	} else if limit > maxLimit {
		limit = maxLimit
	}

	return PaginationParams{
		Page:  page,
		Limit: limit,
	}
}

// PaginationMetadata represents the standardized pagination metadata
type PaginationMetadata struct {
	TotalItems   int `json:"totalItems"`
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// NewPaginationMetadata creates a new pagination metadata object
func NewPaginationMetadata(totalItems, page, limit int) PaginationMetadata {
	totalPages := (totalItems + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}
	return PaginationMetadata{
		TotalItems:   totalItems,
		CurrentPage:  page,
		TotalPages:   totalPages,
		ItemsPerPage: limit,
	}
}

// SendPaginatedResponse sends a standardized paginated API response
func SendPaginatedResponse(c *gin.Context, statusCode int, data interface{}, totalItems, page, limit int) {
	c.JSON(statusCode, gin.H{
		"data":       data,
		"pagination": NewPaginationMetadata(totalItems, page, limit),
	})
}

// SendErrorResponse sends a standardized error response
func SendErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// SendDomainError maps a workflow error to its HTTP status: validation
// failures are bad requests, permission and ownership failures are forbidden,
// missing records are not found, and illegal transitions are conflicts.
func SendDomainError(c *gin.Context, err error) {
	var validationErr *model.ValidationError
	var unauthorizedErr *model.UnauthorizedError
	var transitionErr *model.IllegalTransitionError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  validationErr.Error(),
			"field":  validationErr.Field,
			"reason": validationErr.Reason,
		})
	case errors.As(err, &unauthorizedErr):
		SendErrorResponse(c, http.StatusForbidden, unauthorizedErr.Error())
	case errors.Is(err, model.ErrTradeNotFound), errors.Is(err, model.ErrVersionNotFound):
		SendErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.As(err, &transitionErr):
		SendErrorResponse(c, http.StatusConflict, transitionErr.Error())
	default:
		SendErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}
