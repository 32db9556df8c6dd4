package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/solarroi/solarroi/internal/config"
	"github.com/solarroi/solarroi/internal/store"
	"github.com/solarroi/solarroi/pkg/models"
)

type KeysCmd struct {
	Create KeysCreateCmd `cmd:"" help:"Create a key and print it once."`
	List   KeysListCmd   `cmd:"" help:"List live keys."`
	Revoke KeysRevokeCmd `cmd:"" help:"Revoke a key by ID."`
}

type KeysCreateCmd struct {
	Name  string   `arg:"" help:"Human-readable key name."`
	Scope []string `short:"s" enum:"analyze,admin" default:"analyze" help:"Scopes to grant (analyze, admin)."`
}

type KeysListCmd struct{}

type KeysRevokeCmd struct {
	ID string `arg:"" help:"Key ID to revoke."`
}

// withStore connects to the key store, applies migrations and resolves the default tenant.
func withStore(cfg *config.Config, fn func(ctx context.Context, s store.Store, tenant *models.Tenant) error) error {
	if !cfg.AuthEnabled() {
		return errors.New("DATABASE_URL is required for key management")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	s := store.NewPostgresStore(pool)
	tenant, err := s.GetDefaultTenant(ctx)
	if err != nil {
		return fmt.Errorf("default tenant: %w", err)
	}
	return fn(ctx, s, tenant)
}

func (k *KeysCreateCmd) Run(cfg *config.Config) error {
	return withStore(cfg, func(ctx context.Context, s store.Store, tenant *models.Tenant) error {
		key, raw, err := store.NewAPIKey(tenant.ID, k.Name, k.Scope)
		if err != nil {
			return err
		}
		if err := s.CreateAPIKey(ctx, key); err != nil {
			return err
		}
		fmt.Printf("id:     %s\nname:   %s\nscopes: %v\nkey:    %s\n\nStore the key now; it cannot be shown again.\n",
			key.ID, key.Name, key.Scopes, raw)
		return nil
	})
}

func (KeysListCmd) Run(cfg *config.Config) error {
	return withStore(cfg, func(ctx context.Context, s store.Store, tenant *models.Tenant) error {
		keys, err := s.ListAPIKeys(ctx, tenant.ID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tSCOPES\tLAST USED")
		for _, k := range keys {
			lastUsed := "never"
			if k.LastUsedAt != nil {
				lastUsed = k.LastUsedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n", k.ID, k.Name, k.KeyPrefix, k.Scopes, lastUsed)
		}
		return tw.Flush()
	})
}

func (k *KeysRevokeCmd) Run(cfg *config.Config) error {
	id, err := uuid.Parse(k.ID)
	if err != nil {
		return fmt.Errorf("invalid key ID %q: %w", k.ID, err)
	}
	return withStore(cfg, func(ctx context.Context, s store.Store, tenant *models.Tenant) error {
		if err := s.RevokeAPIKey(ctx, id, tenant.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no live key with ID %s", id)
			}
			return err
		}
		fmt.Printf("revoked %s\n", id)
		return nil
	})
}
