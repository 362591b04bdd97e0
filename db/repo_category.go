package db

import (
	"context"

	"Gin_postgres_redis_workshop_inventory/models"
)

// Categories

func (r *Repo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *Repo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&cats).Error
	return cats, err
}

func (r *Repo) FindCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}
