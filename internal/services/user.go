package services

import (
	"context"
	"errors"
	"time"

	"github.com/tradingnft/backend/internal/models"
	"github.com/tradingnft/backend/internal/repository"
	"github.com/tradingnft/backend/internal/utils"
	"github.com/tradingnft/backend/pkg/logger"
)

type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	IsActive  *bool   `json:"isActive"`
}

type ListUsersQuery struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=10" binding:"min=1,max=100"`
	SortBy string `form:"sortBy" binding:"omitempty,oneof=createdAt email firstName lastName lastLoginAt"`
	Order  string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type PageMeta struct {
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalItems      int64 `json:"totalItems"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

func NewPageMeta(page, limit int, total int64) PageMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PageMeta{
		Page:            page,
		Limit:           limit,
		TotalItems:      total,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

type UserPage struct {
	Items []*models.Account `json:"items"`
	Meta  PageMeta          `json:"meta"`
}

// UserService manages accounts. Returned accounts never carry the password hash.
type UserService struct {
	accounts repository.AccountRepository
	queue    TaskQueue
	now      func() time.Time
}

func NewUserService(accounts repository.AccountRepository, queue TaskQueue) *UserService {
	return &UserService{accounts: accounts, queue: queue, now: time.Now}
}

func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*models.Account, error) {
	existing, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  hash,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.publish(TaskAccountCreated, account)
	return account.Public(), nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}
	return account.Public(), nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}
	return account.Public(), nil
}

func (s *UserService) List(ctx context.Context, q *ListUsersQuery) (*UserPage, error) {
	opts := repository.ListOptions{
		Page:   q.Page,
		Limit:  q.Limit,
		SortBy: q.SortBy,
		Desc:   q.Order != "asc",
	}
	accounts, total, err := s.accounts.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	items := make([]*models.Account, 0, len(accounts))
	for i := range accounts {
		items = append(items, accounts[i].Public())
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = repository.DefaultPageSize
	}
	return &UserPage{Items: items, Meta: NewPageMeta(page, limit, total)}, nil
}

func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*models.Account, error) {
	account, err := s.accounts.Update(ctx, id, repository.AccountUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  req.IsActive,
	})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}

	s.publish(TaskAccountUpdated, account)
	return account.Public(), nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	deleted, err := s.accounts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}

	s.publish(TaskAccountDeleted, &models.Account{ID: id})
	return nil
}

func (s *UserService) publish(eventType string, account *models.Account) {
	if s.queue == nil {
		return
	}
	err := s.queue.Enqueue(&AccountEvent{
		Type:      eventType,
		AccountID: account.ID,
		Email:     account.Email,
		At:        s.now().UTC(),
	})
	if err != nil {
		logger.Warn().Err(err).Str("event", eventType).Msg("[Users] Failed to enqueue account event")
	}
}
