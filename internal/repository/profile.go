package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/immigration-docs/internal/common"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	// GetForUpdate reads the profile and, on postgres, row-locks it until the
	// enclosing transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	// GetByName returns the oldest profile with the exact name.
	GetByName(ctx context.Context, name string) (*entity.Profile, error)
	CreateProfile(ctx context.Context, name string) (*entity.Profile, error)
	ListProfiles(ctx context.Context) ([]*entity.Profile, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// UpdateFields writes only the named profile fields.
	UpdateFields(ctx context.Context, p *entity.Profile, fields []string) error
}

type profileRepository struct {
	c      conn
	logger *slog.Logger
}

var profileColumns = "id, name, created_at, updated_at, " + strings.Join(entity.ProfileFields, ", ")

// profileRow is the persisted shape of a profile.
type profileRow struct {
	ID                      uuid.UUID      `db:"id"`
	Name                    string         `db:"name"`
	CreatedAt               time.Time      `db:"created_at"`
	UpdatedAt               time.Time      `db:"updated_at"`
	MostRecentI94Number     sql.NullString `db:"most_recent_i94_number"`
	MostRecentEntryDate     sql.NullTime   `db:"most_recent_entry_date"`
	AlienRegistrationNumber sql.NullString `db:"alien_registration_number"`
	AuthorizedStayUntil     sql.NullTime   `db:"authorized_stay_until"`
	EADExpiryDate           sql.NullTime   `db:"ead_expiry_date"`
	VisaExpiryDate          sql.NullTime   `db:"visa_expiry_date"`
	PassportNumber          sql.NullString `db:"passport_number"`
	PassportExpiryDate      sql.NullTime   `db:"passport_expiry_date"`
	PassportCountry         sql.NullString `db:"passport_country"`
	CurrentStatusCode       sql.NullString `db:"current_status_code"`
}

func (r profileRow) toEntity() *entity.Profile {
	return &entity.Profile{
		ID:                      r.ID,
		Name:                    r.Name,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
		MostRecentI94Number:     strPtr(r.MostRecentI94Number),
		MostRecentEntryDate:     datePtr(r.MostRecentEntryDate),
		AlienRegistrationNumber: strPtr(r.AlienRegistrationNumber),
		AuthorizedStayUntil:     datePtr(r.AuthorizedStayUntil),
		EADExpiryDate:           datePtr(r.EADExpiryDate),
		VisaExpiryDate:          datePtr(r.VisaExpiryDate),
		PassportNumber:          strPtr(r.PassportNumber),
		PassportExpiryDate:      datePtr(r.PassportExpiryDate),
		PassportCountry:         strPtr(r.PassportCountry),
		CurrentStatusCode:       strPtr(r.CurrentStatusCode),
	}
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	return r.get(ctx, id, false)
}

func (r *profileRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	return r.get(ctx, id, true)
}

func (r *profileRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*entity.Profile, error) {
	q := "SELECT " + profileColumns + " FROM profiles WHERE id = ?"
	if lock && r.c.dialect == Postgres {
		q += " FOR UPDATE"
	}
	var row profileRow
	err := r.c.get(ctx, &row, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get profile", "profile_id", id, "error", err)
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *profileRepository) GetByName(ctx context.Context, name string) (*entity.Profile, error) {
	var row profileRow
	err := r.c.get(ctx, &row,
		"SELECT "+profileColumns+" FROM profiles WHERE name = ? ORDER BY created_at, id LIMIT 1", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get profile by name", "name", name, "error", err)
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *profileRepository) CreateProfile(ctx context.Context, name string) (*entity.Profile, error) {
	now := time.Now().UTC()
	row := profileRow{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	_, err := r.c.namedExec(ctx,
		"INSERT INTO profiles (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)", row)
	if err != nil {
		r.logger.Error("failed to create profile", "name", name, "error", err)
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *profileRepository) ListProfiles(ctx context.Context) ([]*entity.Profile, error) {
	var rows []profileRow
	if err := r.c.selectAll(ctx, &rows, "SELECT "+profileColumns+" FROM profiles ORDER BY created_at, id"); err != nil {
		r.logger.Error("failed to list profiles", "error", err)
		return nil, err
	}
	out := make([]*entity.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *profileRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int
	if err := r.c.get(ctx, &n, "SELECT COUNT(1) FROM profiles WHERE id = ?", id); err != nil {
		r.logger.Error("failed to check profile existence", "profile_id", id, "error", err)
		return false, err
	}
	return n > 0, nil
}

func (r *profileRepository) UpdateFields(ctx context.Context, p *entity.Profile, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	p.UpdatedAt = time.Now().UTC()
	sets := make([]string, 0, len(fields)+1)
	args := map[string]any{"id": p.ID, "updated_at": p.UpdatedAt}
	for _, f := range fields {
		if !isProfileField(f) {
			return fmt.Errorf("update profile: unknown field %q: %w", f, common.ErrInvalidInput)
		}
		sets = append(sets, f+" = :"+f)
		args[f] = profileValue(p, f)
	}
	sets = append(sets, "updated_at = :updated_at")

	res, err := r.c.namedExec(ctx, "UPDATE profiles SET "+strings.Join(sets, ", ")+" WHERE id = :id", args)
	if err != nil {
		r.logger.Error("failed to update profile", "profile_id", p.ID, "fields", fields, "error", err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("profile %s: %w", p.ID, common.ErrNotFound)
	}
	return nil
}

// profileValue is the column value for a profile field.
func profileValue(p *entity.Profile, field string) any {
	if entity.IsDateField(field) {
		d, ok := p.GetDate(field)
		if !ok {
			return nil
		}
		return dateValue(&d)
	}
	v, _ := p.Get(field)
	return nullString(v)
}

func isProfileField(f string) bool {
	for _, pf := range entity.ProfileFields {
		if pf == f {
			return true
		}
	}
	return false
}
