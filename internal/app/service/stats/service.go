package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/pkg/types"
)

type StatisticType string

const (
	// Activation engine
	StatisticTypeDailyActivationCount StatisticType = "daily_activation_count"
	StatisticTypeTotalActiveCount     StatisticType = "total_active_count"
	StatisticTypeDailyRenewalCount    StatisticType = "daily_renewal_count"

	// Revenue
	StatisticTypeDailyRevenue     StatisticType = "daily_revenue"
	StatisticTypeDailyCreditTopup StatisticType = "daily_credit_topup"

	// Affiliate program
	StatisticTypeDailyCommission StatisticType = "daily_commission"
)

type StatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type StatisticRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	DataItems []*StatisticDataItem  `json:"data_items"`
}

func (r *StatisticRequest) where() clause.Where {
	exprs := make([]clause.Expression, 0, len(r.Filters))
	for _, f := range r.Filters {
		exprs = append(exprs, f)
	}
	if len(exprs) == 0 {
		exprs = append(exprs, clause.Expr{SQL: "1=1"})
	}
	return clause.Where{Exprs: exprs}
}

type StatisticResponseDataItem struct {
	Date  string `json:"date"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type StatisticResponse struct {
	DataItems map[StatisticType][]StatisticResponseDataItem `json:"data_items"`
}

// Service answers back-office statistic queries. Each data item maps to one
// query; a request fans them out concurrently.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) getDailyActivationCount(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Activation{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, kind as label, count(*) as value").
		Where(request.where()).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("kind").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalActiveCount(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Activation{}).TableName()).
		Select("kind as label, count(*) as value").
		Where("status = ? AND ends_at > ?", types.ActivationStatusActive, time.Now()).
		Group("kind")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyRenewalCount(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Activation{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where("extra->>'renewed_from_id' IS NOT NULL AND extra->>'renewed_from_id' != ''").
		Where(request.where()).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyRevenue(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.CheckoutIntent{}).TableName()).
		Select("TO_CHAR(updated_at, 'YYYY-MM-DD') as date, purpose as label, sum(amount_cents) as value").
		Where("status = ?", models.CheckoutIntentStatusConfirmed).
		Where(request.where()).
		Group("TO_CHAR(updated_at, 'YYYY-MM-DD')").
		Group("purpose").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyCreditTopup(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.LedgerEntry{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, sum(amount) as value").
		Where("kind = ?", types.LedgerEntryKindPurchaseTopup).
		Where(request.where()).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyCommission(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.AffiliateCommission{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, type as label, sum(commission_cents) as value").
		Where(request.where()).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("type").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getStatistic(ctx context.Context, request *StatisticRequest, dataItem *StatisticDataItem) ([]StatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyActivationCount:
		return s.getDailyActivationCount(ctx, request)
	case StatisticTypeTotalActiveCount:
		return s.getTotalActiveCount(ctx, request)
	case StatisticTypeDailyRenewalCount:
		return s.getDailyRenewalCount(ctx, request)
	case StatisticTypeDailyRevenue:
		return s.getDailyRevenue(ctx, request)
	case StatisticTypeDailyCreditTopup:
		return s.getDailyCreditTopup(ctx, request)
	case StatisticTypeDailyCommission:
		return s.getDailyCommission(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

func (s *Service) GetStatistics(ctx context.Context, request *StatisticRequest) (*StatisticResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []StatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *StatisticDataItem) {
			defer wg.Done()
			res, err := s.getStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []StatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]StatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &StatisticResponse{DataItems: results}, nil
}
