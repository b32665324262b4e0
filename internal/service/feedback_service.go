package service

import (
	"strings"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"
)

// FeedbackInput 评价写入参数
type FeedbackInput struct {
	ProductID uint   `json:"product_id"`
	Rate      *int   `json:"rate"`
	Comment   string `json:"comment"`
}

// FeedbackSummary 商品评分汇总
type FeedbackSummary struct {
	ProductID   uint    `json:"product_id"`
	AverageRate float64 `json:"average_rate"`
	Count       int64   `json:"count"`
}

// FeedbackService 商品评价服务
type FeedbackService struct {
	feedbackRepo repository.FeedbackRepository
	profileRepo  repository.ProfileRepository
	productRepo  repository.ProductRepository
}

// NewFeedbackService 创建评价服务
func NewFeedbackService(
	feedbackRepo repository.FeedbackRepository,
	profileRepo repository.ProfileRepository,
	productRepo repository.ProductRepository,
) *FeedbackService {
	return &FeedbackService{
		feedbackRepo: feedbackRepo,
		profileRepo:  profileRepo,
		productRepo:  productRepo,
	}
}

func validateRate(rate *int) (int, error) {
	if rate == nil {
		return 0, nil
	}
	if *rate < constants.FeedbackRateMin || *rate > constants.FeedbackRateMax {
		return 0, newValidationError("rate", CodeFeedbackRate, "rate must be between 0 and 5")
	}
	return *rate, nil
}

// requireCustomer 以数据库中的角色为准，而非令牌里的角色
func (s *FeedbackService) requireCustomer(profileID uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	if !profile.IsCustomer() {
		return nil, ErrNotCustomer
	}
	return profile, nil
}

// List 商品评价列表（评分降序）
func (s *FeedbackService) List(filter repository.FeedbackListFilter) ([]models.Feedback, int64, error) {
	return s.feedbackRepo.List(filter)
}

// Summary 商品平均评分
func (s *FeedbackService) Summary(productID uint) (*FeedbackSummary, error) {
	avg, count, err := s.feedbackRepo.AverageRate(productID)
	if err != nil {
		return nil, err
	}
	return &FeedbackSummary{ProductID: productID, AverageRate: avg, Count: count}, nil
}

// Create 顾客对商品发表评价，每个商品仅一条
func (s *FeedbackService) Create(actor Actor, in FeedbackInput) (*models.Feedback, error) {
	profile, err := s.requireCustomer(actor.ProfileID)
	if err != nil {
		return nil, err
	}
	rate, err := validateRate(in.Rate)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	existing, err := s.feedbackRepo.GetByCustomerAndProduct(profile.ID, product.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}
	feedback := &models.Feedback{
		CustomerID: profile.ID,
		ProductID:  product.ID,
		Rate:       rate,
		Comment:    strings.TrimSpace(in.Comment),
	}
	if err := s.feedbackRepo.Create(feedback); err != nil {
		return nil, translateWriteError(err)
	}
	return feedback, nil
}

func (s *FeedbackService) loadOwned(actor Actor, id uint) (*models.Feedback, error) {
	feedback, err := s.feedbackRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if feedback == nil {
		return nil, ErrFeedbackNotFound
	}
	if feedback.CustomerID != actor.ProfileID {
		return nil, ErrNotOwner
	}
	return feedback, nil
}

// Update 顾客修改自己的评价
func (s *FeedbackService) Update(actor Actor, id uint, in FeedbackInput) (*models.Feedback, error) {
	feedback, err := s.loadOwned(actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireCustomer(actor.ProfileID); err != nil {
		return nil, err
	}
	if in.Rate != nil {
		rate, err := validateRate(in.Rate)
		if err != nil {
			return nil, err
		}
		feedback.Rate = rate
	}
	feedback.Comment = strings.TrimSpace(in.Comment)
	if err := s.feedbackRepo.Update(feedback); err != nil {
		return nil, translateWriteError(err)
	}
	return feedback, nil
}

// Delete 删除评价（本人或管理员）
func (s *FeedbackService) Delete(actor Actor, id uint) error {
	if actor.IsAdmin() {
		feedback, err := s.feedbackRepo.GetByID(id)
		if err != nil {
			return err
		}
		if feedback == nil {
			return ErrFeedbackNotFound
		}
		return s.feedbackRepo.Delete(id)
	}
	if _, err := s.loadOwned(actor, id); err != nil {
		return err
	}
	return s.feedbackRepo.Delete(id)
}
