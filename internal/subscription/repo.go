package subscription

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/mehmetcc/denticore/internal/license"
	"go.uber.org/zap"
)

type Repo interface {
	FindByOrganization(ctx context.Context, organizationID string) (*Record, error)
	Upsert(ctx context.Context, rec *Record) error
}

const (
	findByOrganizationQuery = `
						SELECT organization_id, status, array_to_string(modules, ','), in_grace_period, grace_period_ends_at, updated_at
						FROM subscriptions
						WHERE organization_id = $1
						`
	upsertSubscriptionQuery = `
						INSERT INTO subscriptions (organization_id, status, modules, in_grace_period, grace_period_ends_at, updated_at)
						VALUES ($1, $2, string_to_array($3, ','), $4, $5, now())
						ON CONFLICT (organization_id) DO UPDATE
						SET status = EXCLUDED.status,
						    modules = EXCLUDED.modules,
						    in_grace_period = EXCLUDED.in_grace_period,
						    grace_period_ends_at = EXCLUDED.grace_period_ends_at,
						    updated_at = now()
						`
)

type repo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepo(db *sql.DB, logger *zap.Logger) Repo {
	return &repo{db: db, logger: logger}
}

func (r *repo) FindByOrganization(ctx context.Context, organizationID string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, findByOrganizationQuery, organizationID)

	var rec Record
	var modules string
	var endsAt sql.NullTime
	if err := row.Scan(&rec.OrganizationID, &rec.Status, &modules, &rec.InGracePeriod, &endsAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("no subscription for organization", zap.String("organization_id", organizationID))
			return nil, ErrNotFound
		}
		r.logger.Error("failed to lookup subscription", zap.String("organization_id", organizationID), zap.Error(err))
		return nil, err
	}

	if modules != "" {
		for _, m := range strings.Split(modules, ",") {
			rec.Modules = append(rec.Modules, license.ModuleCode(m))
		}
	}
	if endsAt.Valid {
		t := endsAt.Time
		rec.GracePeriodEndsAt = &t
	}
	return &rec, nil
}

func (r *repo) Upsert(ctx context.Context, rec *Record) error {
	names := make([]string, len(rec.Modules))
	for i, m := range rec.Modules {
		names[i] = string(m)
	}
	var endsAt *time.Time
	if rec.GracePeriodEndsAt != nil {
		t := rec.GracePeriodEndsAt.UTC()
		endsAt = &t
	}

	_, err := r.db.ExecContext(ctx, upsertSubscriptionQuery,
		rec.OrganizationID,
		string(rec.Status),
		strings.Join(names, ","),
		rec.InGracePeriod,
		endsAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			r.logger.Debug("subscription status rejected by check constraint",
				zap.String("organization_id", rec.OrganizationID),
				zap.String("status", string(rec.Status)),
			)
			return ErrInvalidStatus
		}
		r.logger.Error("failed to upsert subscription", zap.String("organization_id", rec.OrganizationID), zap.Error(err))
		return err
	}
	return nil
}
