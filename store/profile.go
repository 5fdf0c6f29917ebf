package store

import (
	"context"
	"strings"
)

// Profile is a person the user keeps track of.
type Profile struct {
	ID        string
	CreatedTs int64
	UpdatedTs int64

	Name         string
	Age          *int
	Phone        string
	Email        string
	Birthday     string
	Relationship string
	Occupation   string
	Location     string
	Notes        string
	FoodLikes    []string
	FoodDislikes []string
	Interests    []string
	Kids         []string
	Tags         []string
}

type FindProfile struct {
	ID *string
	// Name matches case-insensitively.
	Name  *string
	Limit *int
}

// CreateOrUpdateProfile updates the profile with upsert.ID when it exists,
// otherwise the first profile whose name matches case-insensitively, and
// inserts a new profile when neither is found. Updates merge into the stored
// profile. Nil lists are stored empty.
func (s *Store) CreateOrUpdateProfile(ctx context.Context, upsert *Profile) (*Profile, error) {
	normalizeProfileLists(upsert)
	upsert.Name = strings.TrimSpace(upsert.Name)

	existing, err := s.findProfileForUpsert(ctx, upsert)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.driver.CreateProfile(ctx, upsert)
	}

	return s.driver.UpdateProfile(ctx, mergeProfile(existing, upsert))
}

// mergeProfile overlays the non-empty fields of update onto existing.
// List fields are unioned, keeping existing order.
func mergeProfile(existing, update *Profile) *Profile {
	merged := *existing
	if update.Name != "" && !strings.EqualFold(update.Name, existing.Name) {
		merged.Name = update.Name
	}
	if update.Age != nil {
		merged.Age = update.Age
	}
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&merged.Phone, update.Phone},
		{&merged.Email, update.Email},
		{&merged.Birthday, update.Birthday},
		{&merged.Relationship, update.Relationship},
		{&merged.Occupation, update.Occupation},
		{&merged.Location, update.Location},
		{&merged.Notes, update.Notes},
	} {
		if strings.TrimSpace(f.src) != "" {
			*f.dst = f.src
		}
	}
	merged.FoodLikes = unionStrings(existing.FoodLikes, update.FoodLikes)
	merged.FoodDislikes = unionStrings(existing.FoodDislikes, update.FoodDislikes)
	merged.Interests = unionStrings(existing.Interests, update.Interests)
	merged.Kids = unionStrings(existing.Kids, update.Kids)
	merged.Tags = unionStrings(existing.Tags, update.Tags)
	return &merged
}

func unionStrings(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			key := strings.ToLower(strings.TrimSpace(v))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) findProfileForUpsert(ctx context.Context, upsert *Profile) (*Profile, error) {
	if upsert.ID != "" {
		p, err := s.GetProfile(ctx, &FindProfile{ID: &upsert.ID})
		if err != nil || p != nil {
			return p, err
		}
	}
	if upsert.Name == "" {
		return nil, nil
	}
	return s.GetProfile(ctx, &FindProfile{Name: &upsert.Name})
}

func (s *Store) GetProfile(ctx context.Context, find *FindProfile) (*Profile, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.driver.ListProfiles(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListProfiles(ctx context.Context, find *FindProfile) ([]*Profile, error) {
	return s.driver.ListProfiles(ctx, find)
}

func normalizeProfileLists(p *Profile) {
	for _, list := range []*[]string{&p.FoodLikes, &p.FoodDislikes, &p.Interests, &p.Kids, &p.Tags} {
		if *list == nil {
			*list = []string{}
		}
	}
}
