// Package sqlite provides a SQLite-backed bestiary store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/dicedensity/internal/bestiary"
	"github.com/louisbranch/dicedensity/internal/bestiary/filter"
	"github.com/louisbranch/dicedensity/internal/bestiary/sqlite/migrations"
	sqlitemigrate "github.com/louisbranch/dicedensity/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

const profileColumns = `name, hp, attack, bonus_to_hit, damage, bonus_to_damage,
        evade, armor, resistance, critical_threshold, resource, resource_value,
        max_fatigue, rule, script, updated_at`

// Store persists bestiary profiles in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite bestiary and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Migrations lists the applied schema migrations.
func (s *Store) Migrations(ctx context.Context) ([]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	return sqlitemigrate.Applied(ctx, s.sqlDB)
}

// PutProfile inserts or replaces a profile by name. The profile is validated
// first so the store never holds one that cannot fight.
func (s *Store) PutProfile(ctx context.Context, profile bestiary.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return err
	}
	updatedAt := profile.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = s.now().UTC()
	}

	var threshold sql.NullInt64
	if profile.CriticalThreshold != nil {
		threshold = sql.NullInt64{Int64: int64(*profile.CriticalThreshold), Valid: true}
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   hp = excluded.hp,
		   attack = excluded.attack,
		   bonus_to_hit = excluded.bonus_to_hit,
		   damage = excluded.damage,
		   bonus_to_damage = excluded.bonus_to_damage,
		   evade = excluded.evade,
		   armor = excluded.armor,
		   resistance = excluded.resistance,
		   critical_threshold = excluded.critical_threshold,
		   resource = excluded.resource,
		   resource_value = excluded.resource_value,
		   max_fatigue = excluded.max_fatigue,
		   rule = excluded.rule,
		   script = excluded.script,
		   updated_at = excluded.updated_at`,
		profile.Name,
		profile.HP,
		profile.Attack,
		profile.BonusToHit,
		profile.Damage,
		profile.BonusToDamage,
		profile.Evade,
		profile.Armor,
		profile.Resistance,
		threshold,
		profile.Resource,
		profile.ResourceValue,
		profile.MaxFatigue,
		profile.Rule,
		profile.Script,
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put profile %s: %w", profile.Name, err)
	}
	return nil
}

// GetProfile returns one profile by name.
func (s *Store) GetProfile(ctx context.Context, name string) (bestiary.Profile, error) {
	if err := ctx.Err(); err != nil {
		return bestiary.Profile{}, err
	}
	if s == nil || s.sqlDB == nil {
		return bestiary.Profile{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return bestiary.Profile{}, fmt.Errorf("profile name is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bestiary.Profile{}, fmt.Errorf("%w: %s", bestiary.ErrNotFound, name)
		}
		return bestiary.Profile{}, fmt.Errorf("get profile %s: %w", name, err)
	}
	return profile, nil
}

// ListProfiles returns the profiles matching filter ordered by name.
func (s *Store) ListProfiles(ctx context.Context, filterStr string) ([]bestiary.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	cond, err := filter.ParseProfileFilter(filterStr)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + profileColumns + ` FROM profiles`
	if !cond.Empty() {
		query += ` WHERE ` + cond.Clause
	}
	query += ` ORDER BY name ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, cond.Params...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []bestiary.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("list profiles: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (bestiary.Profile, error) {
	var (
		profile   bestiary.Profile
		threshold sql.NullInt64
		updatedAt int64
	)
	if err := row.Scan(
		&profile.Name,
		&profile.HP,
		&profile.Attack,
		&profile.BonusToHit,
		&profile.Damage,
		&profile.BonusToDamage,
		&profile.Evade,
		&profile.Armor,
		&profile.Resistance,
		&threshold,
		&profile.Resource,
		&profile.ResourceValue,
		&profile.MaxFatigue,
		&profile.Rule,
		&profile.Script,
		&updatedAt,
	); err != nil {
		return bestiary.Profile{}, err
	}
	if threshold.Valid {
		value := int(threshold.Int64)
		profile.CriticalThreshold = &value
	}
	profile.UpdatedAt = fromMillis(updatedAt)
	return profile, nil
}

var _ bestiary.Store = (*Store)(nil)
