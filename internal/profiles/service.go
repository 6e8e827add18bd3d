package profiles

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
	"github.com/joseph-ayodele/immigration-docs/internal/repository"
)

const maxNameLen = 200

// Service handles profile business logic.
type Service struct {
	store  *repository.Store
	logger *slog.Logger
}

// NewService creates a new profile service.
func NewService(store *repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Details is a profile with its priority-date history.
type Details struct {
	Profile       *entity.Profile       `json:"profile"`
	PriorityDates []entity.PriorityDate `json:"priority_dates"`
}

// GetOrCreate returns the profile with this name, creating it when absent.
func (s *Service) GetOrCreate(ctx context.Context, name string) (*entity.Profile, error) {
	name = strings.TrimSpace(name)
	v := common.NewValidator().Field("name", name, common.Required, common.MaxLength(maxNameLen))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	p, err := s.store.Profiles.GetByName(ctx, name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, status.Errorf(codes.Internal, "get profile: %v", err)
	}

	p, err = s.store.Profiles.CreateProfile(ctx, name)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "create profile: %v", err)
	}
	s.logger.Info("profile created successfully", "profile_id", p.ID, "name", p.Name)
	return p, nil
}

// Get returns the profile and its priority dates.
func (s *Service) Get(ctx context.Context, profileID string) (*Details, error) {
	id, err := uuid.Parse(strings.TrimSpace(profileID))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "profile_id must be a UUID")
	}
	p, err := s.store.Profiles.GetByID(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	pds, err := s.store.PriorityDates.ListByProfile(ctx, id)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list priority dates: %v", err)
	}
	return &Details{Profile: p, PriorityDates: pds}, nil
}

// ListProfiles returns all profiles.
func (s *Service) ListProfiles(ctx context.Context) ([]*entity.Profile, error) {
	plist, err := s.store.Profiles.ListProfiles(ctx)
	if err != nil {
		// DB error already logged in repository layer
		return nil, status.Errorf(codes.Internal, "list profiles: %v", err)
	}
	s.logger.Debug("profiles listed successfully", "count", len(plist))
	return plist, nil
}
