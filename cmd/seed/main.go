package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"partystream/internal/database"
	"partystream/internal/domain"
	"partystream/internal/repository"
)

// Seeds an admin account plus a demo host and DJ so a fresh install has
// something to log in with. Safe to re-run: existing emails are skipped.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "partystream.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed: ", err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal("Migration failed: ", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	profiles := repository.NewDJProfileRepository(db)

	admin := seedUser(ctx, users, "admin@partystream.io", "admin123", "Admin", domain.RoleAdmin)
	host := seedUser(ctx, users, "host@partystream.io", "host1234", "Demo Host", domain.RoleHost)
	djUser := seedUser(ctx, users, "dj@partystream.io", "dj123456", "DJ Nova", domain.RoleDJ)
	_ = admin
	_ = host

	if djUser != nil {
		if _, err := profiles.GetByUserID(ctx, djUser.ID); err != nil {
			profile := &domain.DJProfile{
				UserID:     djUser.ID,
				StageName:  "DJ Nova",
				Bio:        "House and techno sets for private parties.",
				HourlyRate: 75,
				Genres:     []string{"house", "techno"},
				Languages:  []string{"English", "Spanish"},
			}
			if err := profiles.Create(ctx, profile); err != nil {
				log.Fatal("Profile seed failed: ", err)
			}
			log.Printf("Created demo DJ profile id=%d", profile.ID)
		}
	}

	log.Println("Seed complete")
}

func seedUser(ctx context.Context, users *repository.UserRepository, email, password, name string, role domain.Role) *domain.User {
	if existing, err := users.GetByEmail(ctx, email); err == nil {
		log.Printf("User %s already exists, skipping", email)
		return existing
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Hashing failed: ", err)
	}

	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatal("User seed failed: ", err)
	}
	log.Printf("Created %s user %s", role, email)
	return u
}
