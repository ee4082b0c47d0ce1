//
// Date: 2025-12-21
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Current user profile. Owned by the caller, not a global.
//

package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/cloudmanic/spotify-auth-kit/spoterr"
	"github.com/cloudmanic/spotify-auth-kit/storage"
)

// Profile is the signed in user.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Birthdate   string `json:"birthdate"`
	Href        string `json:"href"`
	Followers   int    `json:"followers"`
	ImageURL    string `json:"image_url"`
	Product     string `json:"product"`
	Type        string `json:"type"`
	URI         string `json:"uri"`

	// CacheKey, when set, makes Update persist the profile to Store.
	CacheKey string        `json:"-"`
	Store    storage.Store `json:"-"`
}

// Update overwrites the profile from a /me payload. The follower count and
// image are only replaced when the payload carries them.
func (p *Profile) Update(ctx context.Context, data []byte) error {
	r, err := parseObject(data, "profile")
	if err != nil {
		return err
	}

	p.ID = stringOr(r, "id", "")
	p.Birthdate = stringOr(r, "birthdate", "")
	p.Country = stringOr(r, "country", "")
	p.DisplayName = stringOr(r, "display_name", "")
	p.Email = stringOr(r, "email", "")
	p.Href = stringOr(r, "href", "")
	if v := r.Get("followers.total"); v.Exists() {
		p.Followers = int(v.Int())
	}
	if v := r.Get("images.0.url"); v.Type == gjson.String {
		p.ImageURL = v.Str
	}
	p.Product = stringOr(r, "product", "")
	p.Type = stringOr(r, "type", "")
	p.URI = stringOr(r, "uri", "")

	if p.CacheKey != "" && p.Store != nil {
		return p.Save(ctx)
	}
	return nil
}

// Save persists the profile under CacheKey.
func (p *Profile) Save(ctx context.Context) error {
	if p.CacheKey == "" || p.Store == nil {
		return spoterr.Configuration("profile cache key or store is not set")
	}
	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := p.Store.Save(ctx, p.CacheKey, blob); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// LoadProfile restores a profile saved under key.
func LoadProfile(ctx context.Context, store storage.Store, key string) (*Profile, error) {
	blob, err := store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	p := &Profile{}
	if err := json.Unmarshal(blob, p); err != nil {
		return nil, spoterr.Decode("invalid stored profile", err)
	}
	if p.ID == "" {
		return nil, spoterr.Decode("stored profile has no id", nil)
	}
	p.CacheKey = key
	p.Store = store
	return p, nil
}
