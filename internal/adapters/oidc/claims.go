package oidc

import (
	"fmt"
	"strconv"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
)

// ClaimMapping holds JMESPath expressions that pick provider user fields out of
// the merged id_token and userinfo claims. Empty expressions use the defaults.
type ClaimMapping struct {
	ID        string
	Email     string
	Phone     string
	FullName  string
	Name      string
	AvatarURL string
	CreatedAt string
	UpdatedAt string
}

// DefaultClaimMapping targets standard OIDC claims.
func DefaultClaimMapping() ClaimMapping {
	return ClaimMapping{
		ID:        "sub",
		Email:     "email",
		Phone:     "phone_number",
		FullName:  "name",
		Name:      "nickname || given_name",
		AvatarURL: "picture",
		CreatedAt: "created_at",
		UpdatedAt: "updated_at",
	}
}

// claimMapper evaluates a validated ClaimMapping.
type claimMapper struct {
	m ClaimMapping
}

func newClaimMapper(m ClaimMapping) (*claimMapper, error) {
	def := DefaultClaimMapping()
	fill := func(dst *string, fallback string) {
		if *dst == "" {
			*dst = fallback
		}
	}
	fill(&m.ID, def.ID)
	fill(&m.Email, def.Email)
	fill(&m.Phone, def.Phone)
	fill(&m.FullName, def.FullName)
	fill(&m.Name, def.Name)
	fill(&m.AvatarURL, def.AvatarURL)
	fill(&m.CreatedAt, def.CreatedAt)
	fill(&m.UpdatedAt, def.UpdatedAt)

	for name, expr := range map[string]string{
		"id": m.ID, "email": m.Email, "phone": m.Phone, "full_name": m.FullName,
		"name": m.Name, "avatar_url": m.AvatarURL, "created_at": m.CreatedAt, "updated_at": m.UpdatedAt,
	} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("claim mapping %s: %w", name, err)
		}
	}
	return &claimMapper{m: m}, nil
}

// Map builds a ProviderUser from raw claims. Fields whose expression yields nothing stay empty.
func (c *claimMapper) Map(claims map[string]any) domainauth.ProviderUser {
	return domainauth.ProviderUser{
		ID:        c.text(c.m.ID, claims),
		Email:     c.text(c.m.Email, claims),
		Phone:     c.text(c.m.Phone, claims),
		CreatedAt: c.timestamp(c.m.CreatedAt, claims),
		UpdatedAt: c.timestamp(c.m.UpdatedAt, claims),
		Metadata: domainauth.UserMetadata{
			FullName:  c.text(c.m.FullName, claims),
			Name:      c.text(c.m.Name, claims),
			AvatarURL: c.text(c.m.AvatarURL, claims),
		},
	}
}

func (c *claimMapper) text(expr string, claims map[string]any) string {
	v, err := jmespath.Search(expr, claims)
	if err != nil || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// timestamp yields ISO-8601. Numeric claims are Unix seconds, as OIDC updated_at is.
func (c *claimMapper) timestamp(expr string, claims map[string]any) string {
	v, err := jmespath.Search(expr, claims)
	if err != nil || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return time.Unix(int64(t), 0).UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// mergeClaims overlays primary onto secondary without mutating either.
func mergeClaims(primary, secondary map[string]any) map[string]any {
	out := make(map[string]any, len(primary)+len(secondary))
	for k, v := range secondary {
		out[k] = v
	}
	for k, v := range primary {
		out[k] = v
	}
	return out
}
