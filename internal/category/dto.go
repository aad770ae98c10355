package category

import (
	"strings"

	errors "github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/core/common/validation"
)

const maxNameLength = 100

type CategoryDTO struct {
	Name string `json:"name"`
}

func (dto *CategoryDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
}

func (dto CategoryDTO) Validate() *errors.AppError {
	return validation.ValidateName("name", dto.Name, maxNameLength)
}

type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}
