package store

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/solarroi/solarroi/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// KeyPrefixLen is the number of leading characters of a raw key stored in clear for lookup.
const KeyPrefixLen = 8

const rawKeyMarker = "sr_"

var ErrInvalidScope = errors.New("invalid api key scope")

// NewAPIKey mints a key for tenantID. The raw key is returned once and never stored;
// the model carries only its prefix and bcrypt hash.
func NewAPIKey(tenantID uuid.UUID, name string, scopes []string) (*models.APIKey, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", errors.New("api key name is required")
	}
	if len(scopes) == 0 {
		scopes = []string{models.ScopeAnalyze}
	}
	for _, s := range scopes {
		if s != models.ScopeAnalyze && s != models.ScopeAdmin {
			return nil, "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
		}
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}
	raw := rawKeyMarker + hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash api key: %w", err)
	}

	now := time.Now().UTC()
	return &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: raw[:KeyPrefixLen],
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}, raw, nil
}
