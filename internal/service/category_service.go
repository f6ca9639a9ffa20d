package service

import (
	"context"
	"errors"
	"strings"

	"botica/internal/dto"
	"botica/internal/model"
	"botica/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryService interface {
	Create(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	List(ctx context.Context) ([]dto.CategoryResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) checkNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.repo.FindByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return translate(err, "Categoría", "find category")
	}
	if existing.ID != self {
		return conflict("ya existe una categoría con el nombre %s", name)
	}
	return nil
}

func (s *categoryService) Create(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.checkNameFree(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}
	c := &model.Category{ID: uuid.New(), Name: name, Description: req.Description, Active: true}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, translate(err, "Categoría", "create category")
	}
	resp := categoryToResponse(c)
	return &resp, nil
}

func (s *categoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, translate(err, "Categoría", "list categories")
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for i := range list {
		out = append(out, categoryToResponse(&list[i]))
	}
	return out, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Categoría", "find category")
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := s.checkNameFree(ctx, name, id); err != nil {
			return nil, err
		}
		c.Name = name
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, translate(err, "Categoría", "update category")
	}
	resp := categoryToResponse(c)
	return &resp, nil
}

func (s *categoryService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return translate(s.repo.Deactivate(ctx, id), "Categoría", "deactivate category")
}
