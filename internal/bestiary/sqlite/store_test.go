package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/dicedensity/internal/bestiary"
	"github.com/louisbranch/dicedensity/internal/bestiary/filter"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutGetProfileRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	threshold := 0
	input := bestiary.Profile{
		Name:              "Ogre",
		HP:                59,
		Attack:            "ad20",
		BonusToHit:        6,
		Damage:            "m2d8",
		BonusToDamage:     4,
		Evade:             8,
		Armor:             3,
		Resistance:        1,
		CriticalThreshold: &threshold,
		Resource:          "fatigue",
		MaxFatigue:        4,
		Rule:              "excess",
		Script:            "function damage(a, d, roll) return dice.const(1) end",
		UpdatedAt:         time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC),
	}
	if err := store.PutProfile(context.Background(), input); err != nil {
		t.Fatalf("put profile: %v", err)
	}

	got, err := store.GetProfile(context.Background(), "Ogre")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got.CriticalThreshold == nil || *got.CriticalThreshold != 0 {
		t.Fatalf("critical threshold = %v, want 0", got.CriticalThreshold)
	}
	if !got.UpdatedAt.Equal(input.UpdatedAt) {
		t.Fatalf("updated_at = %v, want %v", got.UpdatedAt, input.UpdatedAt)
	}
	got.CriticalThreshold = input.CriticalThreshold
	got.UpdatedAt = input.UpdatedAt
	if got != input {
		t.Fatalf("profile = %+v, want %+v", got, input)
	}
}

func TestPutProfileKeepsNilThreshold(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.PutProfile(context.Background(), bestiary.Profile{Name: "rat", HP: 2, Damage: "d2"}); err != nil {
		t.Fatalf("put profile: %v", err)
	}
	got, err := store.GetProfile(context.Background(), "rat")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got.CriticalThreshold != nil {
		t.Fatalf("critical threshold = %d, want nil", *got.CriticalThreshold)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("expected updated_at to be stamped")
	}
}

func TestPutProfileReplacesByName(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.PutProfile(ctx, bestiary.Profile{Name: "wolf", HP: 11, Damage: "m2d4"}); err != nil {
		t.Fatalf("put profile: %v", err)
	}
	if err := store.PutProfile(ctx, bestiary.Profile{Name: " wolf ", HP: 13, Damage: "m2d6"}); err != nil {
		t.Fatalf("replace profile: %v", err)
	}

	profiles, err := store.ListProfiles(ctx, "")
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("profiles = %d, want 1", len(profiles))
	}
	if profiles[0].HP != 13 || profiles[0].Damage != "m2d6" {
		t.Fatalf("profile = %+v, want replaced values", profiles[0])
	}
}

func TestPutProfileRejectsInvalid(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	err := store.PutProfile(context.Background(), bestiary.Profile{Name: "ghost", HP: 5, Damage: "d0"})
	if !errors.Is(err, bestiary.ErrInvalidProfile) {
		t.Fatalf("expected %v, got %v", bestiary.ErrInvalidProfile, err)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetProfile(context.Background(), "dragon"); !errors.Is(err, bestiary.ErrNotFound) {
		t.Fatalf("expected %v, got %v", bestiary.ErrNotFound, err)
	}
	if _, err := store.GetProfile(context.Background(), " "); err == nil {
		t.Fatal("expected empty name error")
	}
}

func TestListProfilesOrderedByName(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for _, name := range []string{"zombie", "bandit", "kobold"} {
		if err := store.PutProfile(ctx, bestiary.Profile{Name: name, HP: 5, Damage: "d6"}); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}

	profiles, err := store.ListProfiles(ctx, "")
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	want := []string{"bandit", "kobold", "zombie"}
	if len(profiles) != len(want) {
		t.Fatalf("profiles = %d, want %d", len(profiles), len(want))
	}
	for i, name := range want {
		if profiles[i].Name != name {
			t.Fatalf("profiles[%d] = %q, want %q", i, profiles[i].Name, name)
		}
	}
}

func TestListProfilesFiltered(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for _, profile := range []bestiary.Profile{
		{Name: "ogre", HP: 30, Damage: "m2d8", Rule: "natural"},
		{Name: "wolf", HP: 12, Damage: "d6", Evade: 12, Rule: "natural"},
		{Name: "knight", HP: 25, Damage: "d8", Armor: 16, Rule: "threshold"},
		{Name: "rat", HP: 2, Damage: "d2", Rule: "natural"},
	} {
		if err := store.PutProfile(ctx, profile); err != nil {
			t.Fatalf("put %s: %v", profile.Name, err)
		}
	}

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "empty matches all", filter: "", want: []string{"knight", "ogre", "rat", "wolf"}},
		{name: "hp and rule", filter: `hp > 10 AND rule = "natural"`, want: []string{"ogre", "wolf"}},
		{name: "or", filter: "evade >= 12 OR armor >= 16", want: []string{"knight", "wolf"}},
		{name: "chained and", filter: `hp > 10 AND hp < 28 AND rule = "natural"`, want: []string{"wolf"}},
		{name: "case insensitive enumeration", filter: `rule = "Threshold"`, want: []string{"knight"}},
		{name: "no match", filter: "hp > 100", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles, err := store.ListProfiles(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list profiles %q: %v", tt.filter, err)
			}
			if len(profiles) != len(tt.want) {
				t.Fatalf("profiles = %v, want %v", names(profiles), tt.want)
			}
			for i, name := range tt.want {
				if profiles[i].Name != name {
					t.Fatalf("profiles = %v, want %v", names(profiles), tt.want)
				}
			}
		})
	}

	if _, err := store.ListProfiles(ctx, "speed > 3"); !errors.Is(err, filter.ErrInvalidFilter) {
		t.Fatalf("expected %v, got %v", filter.ErrInvalidFilter, err)
	}
}

func names(profiles []bestiary.Profile) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Name)
	}
	return out
}

func TestReopenKeepsProfilesAndMigrations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bestiary.db")
	ctx := context.Background()
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.PutProfile(ctx, bestiary.Profile{Name: "slime", HP: 3, Damage: "d4"}); err != nil {
		t.Fatalf("put profile: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	if _, err := reopened.GetProfile(ctx, "slime"); err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	applied, err := reopened.Migrations(ctx)
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if len(applied) != 1 || applied[0] != "001_profiles.sql" {
		t.Fatalf("applied = %v, want [001_profiles.sql]", applied)
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListProfiles(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "bestiary.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
