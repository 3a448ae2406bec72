package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/leave-calendar-api/internal/models"
	"github.com/noah-isme/leave-calendar-api/pkg/cache"
	appErrors "github.com/noah-isme/leave-calendar-api/pkg/errors"
)

const (
	suggestionLimit     = 5
	defaultMaxRangeDays = 366
)

type reportDayReader interface {
	ListByDates(ctx context.Context, dates []string) (map[string]models.DayAssignment, error)
	ListAll(ctx context.Context) ([]models.DayAssignment, error)
}

// ReportConfig tunes report resolution. MaxRangeDays caps range selections.
type ReportConfig struct {
	Location     *time.Location
	CacheTTL     time.Duration
	MaxRangeDays int
}

// ReportService resolves report selections against the calendar store.
type ReportService struct {
	days      reportDayReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportConfig
	now       func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(days reportDayReader, cache *CacheService, metrics *MetricsService, cfg ReportConfig, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = defaultMaxRangeDays
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{days: days, cache: cache, metrics: metrics, validator: validate, logger: logger, cfg: cfg, now: time.Now}
}

// Generate resolves the selection, loads the covered days and aggregates them.
// The boolean reports whether the result came from cache.
func (s *ReportService) Generate(ctx context.Context, req models.ReportRequest) (*models.ReportResult, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report query")
	}
	if err := s.checkRangeSpan(req.Query()); err != nil {
		return nil, false, err
	}
	dates, err := ResolveDates(req.Query(), s.now().In(s.cfg.Location))
	if err != nil {
		return nil, false, err
	}
	employeeID := strings.TrimSpace(req.EmployeeID)

	key := reportCacheKey(dates, employeeID)
	var cached models.ReportResult
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		cached.Mode = req.Mode
		return &cached, true, nil
	}

	result := &models.ReportResult{Mode: req.Mode, Dates: dates, Rows: []models.ReportRow{}}
	if len(dates) > 0 {
		began := time.Now()
		stored, err := s.days.ListByDates(ctx, dates)
		s.metrics.ObserveDBQuery("calendar_list_by_dates", time.Since(began))
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
		}
		byDate := make(map[string][]models.AssignedEmployee, len(stored))
		for date, day := range stored {
			byDate[date] = day.Employees
		}
		var filter *string
		if employeeID != "" {
			filter = &employeeID
		}
		result.Rows = Aggregate(dates, byDate, filter)
	}

	_ = s.cache.Set(ctx, key, result, s.cfg.CacheTTL)
	return result, false, nil
}

// SuggestEmployees lists distinct employees seen in calendar snapshots whose
// name or number matches search. The first snapshot seen for an id wins.
func (s *ReportService) SuggestEmployees(ctx context.Context, search string) ([]models.Employee, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return []models.Employee{}, nil
	}
	days, err := s.days.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	seen := make(map[string]struct{})
	suggestions := make([]models.Employee, 0, suggestionLimit)
	for _, day := range days {
		for _, e := range day.Employees {
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
			if !matchesEmployee(e.Number, e.Name, search) {
				continue
			}
			suggestions = append(suggestions, models.Employee{ID: e.ID, Number: e.Number, Name: e.Name})
			if len(suggestions) == suggestionLimit {
				return suggestions, nil
			}
		}
	}
	return suggestions, nil
}

// checkRangeSpan rejects range selections longer than MaxRangeDays before any
// dates are expanded. Malformed ranges are left to ResolveDates.
func (s *ReportService) checkRangeSpan(query models.ReportQuery) error {
	if query.Mode != models.ReportModeRange {
		return nil
	}
	start, ok := ParseDate(query.Start)
	if !ok {
		return nil
	}
	end, ok := ParseDate(query.End)
	if !ok || end.Before(start) {
		return nil
	}
	// Sub saturates for spans beyond ~292 years, which still exceeds any cap
	if days := int(end.Sub(start).Hours()/24) + 1; days > s.cfg.MaxRangeDays {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range spans %d days, at most %d allowed", days, s.cfg.MaxRangeDays))
	}
	return nil
}

func reportCacheKey(dates []string, employeeID string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(dates, ",")))
	h.Write([]byte{'|'})
	h.Write([]byte(employeeID))
	return cache.Key("reports", strconv.Itoa(len(dates)), hex.EncodeToString(h.Sum(nil))[:32])
}
