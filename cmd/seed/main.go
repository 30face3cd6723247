package main

import (
	"context"
	"flag"
	"log"

	"classtrack/internal/apperr"
	"classtrack/internal/config"
	"classtrack/internal/identity"
	"classtrack/internal/model"
	"classtrack/internal/store"
	"classtrack/internal/user"
)

// Seed creates an initial admin identity and prints a signed local token so
// a fresh deployment can be administered before any provider login exists.
func main() {
	name := flag.String("name", "Admin", "admin display name")
	email := flag.String("email", "admin@classtrack.local", "admin email")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(db.Client); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	users := user.NewRepository(db.Client)
	admin, err := users.Create(ctx, *name, *email, model.RoleAdmin)
	if apperr.KindOf(err) == apperr.Conflict {
		log.Printf("admin %s already exists, reusing", *email)
		if admin, err = users.FindOrCreateByEmail(ctx, *email, *name); err == nil && admin.Role != model.RoleAdmin {
			role := model.RoleAdmin
			admin, err = users.Update(ctx, admin.ID, user.Patch{Role: &role})
		}
	}
	if err != nil {
		log.Fatalf("create admin failed: %v", err)
	}

	token, exp, err := identity.Issue(admin.ID, string(admin.Role), cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
	if err != nil {
		log.Fatalf("token issue failed: %v", err)
	}

	log.Printf("admin id: %s", admin.ID)
	log.Printf("token (expires %s): %s", exp.Format("2006-01-02 15:04:05"), token)
}
