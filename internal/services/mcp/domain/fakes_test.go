package domain

import (
	"context"
	"fmt"
	"sort"

	"github.com/louisbranch/dicedensity/internal/bestiary"
)

type fakeStore struct {
	profiles map[string]bestiary.Profile
	listErr  error
	// lastFilter records the filter passed to ListProfiles.
	lastFilter string
}

func newFakeStore(profiles ...bestiary.Profile) *fakeStore {
	store := &fakeStore{profiles: make(map[string]bestiary.Profile)}
	for _, p := range profiles {
		store.profiles[p.Name] = p
	}
	return store
}

func (s *fakeStore) PutProfile(_ context.Context, profile bestiary.Profile) error {
	s.profiles[profile.Name] = profile
	return nil
}

func (s *fakeStore) GetProfile(_ context.Context, name string) (bestiary.Profile, error) {
	profile, ok := s.profiles[name]
	if !ok {
		return bestiary.Profile{}, fmt.Errorf("%w: %s", bestiary.ErrNotFound, name)
	}
	return profile, nil
}

func (s *fakeStore) ListProfiles(_ context.Context, filter string) ([]bestiary.Profile, error) {
	s.lastFilter = filter
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]bestiary.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
