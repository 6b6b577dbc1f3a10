package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nestlearn/planner-api/internal/dto"
	"github.com/nestlearn/planner-api/internal/models"
	appErrors "github.com/nestlearn/planner-api/pkg/errors"
)

type blackoutWriter interface {
	Create(ctx context.Context, blackout *models.BlackoutPeriod) error
}

type learnerDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Learner, error)
	ListByFamily(ctx context.Context, familyID string) ([]models.Learner, error)
}

// BlackoutService creates no-schedule periods.
type BlackoutService struct {
	blackouts blackoutWriter
	learners  learnerDirectory
	cache     availabilityInvalidator
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewBlackoutService constructs the service.
func NewBlackoutService(blackouts blackoutWriter, learners learnerDirectory, cache availabilityInvalidator, validate *validator.Validate, logger *zap.Logger) *BlackoutService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlackoutService{
		blackouts: blackouts,
		learners:  learners,
		cache:     cache,
		validate:  validate,
		logger:    logger,
	}
}

// Create validates and stores a blackout, then drops cached availability for
// every learner it covers.
func (s *BlackoutService) Create(ctx context.Context, req dto.CreateBlackoutRequest) (*models.BlackoutPeriod, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	startsOn, err := time.ParseInLocation(dateLayout, req.StartsOn, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startsOn must be YYYY-MM-DD")
	}
	endsOn, err := time.ParseInLocation(dateLayout, req.EndsOn, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endsOn must be YYYY-MM-DD")
	}
	if endsOn.Before(startsOn) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endsOn must not precede startsOn")
	}

	affected := []string{}
	if req.LearnerID != nil {
		learner, err := s.learners.FindByID(ctx, *req.LearnerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read learner")
		}
		if learner.FamilyID != req.FamilyID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "learner does not belong to this family")
		}
		affected = append(affected, learner.ID)
	} else {
		learners, err := s.learners.ListByFamily(ctx, req.FamilyID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read learners")
		}
		for _, l := range learners {
			affected = append(affected, l.ID)
		}
	}

	blackout := &models.BlackoutPeriod{
		FamilyID:  req.FamilyID,
		LearnerID: req.LearnerID,
		StartsOn:  startsOn,
		EndsOn:    endsOn,
		Reason:    req.Reason,
	}
	if err := s.blackouts.Create(ctx, blackout); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store blackout")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, affected)
	}

	s.logger.Info("blackout created",
		zap.String("blackout_id", blackout.ID),
		zap.String("family_id", req.FamilyID),
		zap.Int("learners_affected", len(affected)),
	)
	return blackout, nil
}
