package rest

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/covenant-witness/internal/api/shared/constants"
)

// ListWitnessesQueryParams holds query parameters for GET /witnesses
type ListWitnessesQueryParams struct {
	IncludeStats bool `form:"includeStats,default=false"`

	// Pagination
	Limit  int `form:"limit,default=50"`
	Offset int `form:"offset,default=0"`
}

// ParseListWitnessesQuery parses query parameters for GET /witnesses
func ParseListWitnessesQuery(c *gin.Context) (*ListWitnessesQueryParams, error) {
	var params ListWitnessesQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	// Cap limits
	if params.Limit > constants.MAX_PAGE_SIZE {
		params.Limit = constants.MAX_PAGE_SIZE
	}

	return &params, nil
}

// Validate validates the query parameters
func (p *ListWitnessesQueryParams) Validate() error {
	if p.Limit <= 0 {
		return errors.New("limit must be positive")
	}
	if p.Offset < 0 {
		return errors.New("offset must not be negative")
	}
	return nil
}
