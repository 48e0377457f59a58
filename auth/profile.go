package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Profile is the row the provider keeps for each user, role included.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Company  string `json:"company,omitempty"`
	Role     string `json:"role,omitempty"`
}

// ProfileUpdate carries the two user-editable fields.
type ProfileUpdate struct {
	FullName string `json:"full_name,omitempty"`
	Company  string `json:"company,omitempty"`
}

// Profile fetches the user's profile row from the provider's REST API.
// With auth disabled a local admin profile is synthesized.
func (v *Verifier) Profile(ctx context.Context, token string, u User) (Profile, error) {
	if v.disable {
		return Profile{ID: u.ID, Email: u.Email, Role: "admin"}, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/rest/v1/profiles?id=eq.%s&select=*", v.url, u.ID), nil)
	if err != nil {
		return Profile{}, err
	}
	v.setHeaders(req, token)

	resp, err := v.client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("profile fetch returned %d", resp.StatusCode)
	}
	var rows []Profile
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return Profile{}, fmt.Errorf("profile response: %w", err)
	}
	if len(rows) == 0 {
		// No profile row yet: fall back to the identity with default role.
		return Profile{ID: u.ID, Email: u.Email, Role: "user"}, nil
	}
	p := rows[0]
	if p.Role == "" {
		p.Role = "user"
	}
	return p, nil
}

// UpdateProfile patches the user's profile row and returns the result.
func (v *Verifier) UpdateProfile(ctx context.Context, token string, u User, upd ProfileUpdate) (Profile, error) {
	if v.disable {
		return Profile{ID: u.ID, Email: u.Email, FullName: upd.FullName, Company: upd.Company, Role: "admin"}, nil
	}
	body, err := json.Marshal(upd)
	if err != nil {
		return Profile{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/rest/v1/profiles?id=eq.%s", v.url, u.ID), bytes.NewReader(body))
	if err != nil {
		return Profile{}, err
	}
	v.setHeaders(req, token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := v.client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("profile update request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Profile{}, fmt.Errorf("profile update returned %d", resp.StatusCode)
	}
	var rows []Profile
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return Profile{}, fmt.Errorf("profile update response: %w", err)
	}
	if len(rows) == 0 {
		return Profile{}, fmt.Errorf("profile update returned no rows")
	}
	return rows[0], nil
}

// IsAdmin reports whether the user's profile carries the admin role.
func (v *Verifier) IsAdmin(ctx context.Context, token string, u User) bool {
	p, err := v.Profile(ctx, token, u)
	if err != nil {
		return false
	}
	return p.Role == "admin"
}

func (v *Verifier) setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.anonKey)
}
