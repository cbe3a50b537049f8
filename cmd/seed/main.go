package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/domain"
)

type seedUser struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Phone    string `yaml:"phone"`
	Address  string `yaml:"address"`
	Role     string `yaml:"role"`
}

type seedPrice struct {
	UnitType    string `yaml:"unit_type"`
	PriceCents  int64  `yaml:"price_cents"`
	MinDuration int32  `yaml:"min_duration"`
}

type seedProduct struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Category    string      `yaml:"category"`
	Quantity    int32       `yaml:"quantity"`
	Pricing     []seedPrice `yaml:"pricing"`
}

type seedData struct {
	Users    []seedUser    `yaml:"users"`
	Products []seedProduct `yaml:"products"`
}

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	dataPath := flag.String("data", "db/seed.yaml", "Path to seed data file")
	schemaPath := flag.String("schema", "", "Apply this schema file before seeding")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	data, err := readSeedFile(*dataPath)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Printf("Connected to database: %s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	if *schemaPath != "" {
		ddl, err := os.ReadFile(*schemaPath)
		if err != nil {
			log.Fatalf("Failed to read schema: %v", err)
		}
		if _, err := db.Exec(string(ddl)); err != nil {
			log.Fatalf("Failed to apply schema: %v", err)
		}
		log.Printf("Applied schema %s", *schemaPath)
	}

	if err := populate(db, data, bcrypt.DefaultCost); err != nil {
		log.Fatalf("Failed to populate data: %v", err)
	}
	log.Printf("Seeded %d users and %d products", len(data.Users), len(data.Products))
}

func readSeedFile(filename string) (*seedData, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var data seedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// populate upserts users by email and inserts products with their pricing tiers in one transaction.
func populate(db *sql.DB, data *seedData, cost int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, u := range data.Users {
		role := domain.UserRole(u.Role)
		if role == "" {
			role = domain.UserRoleCustomer
		}
		if !role.Valid() {
			return fmt.Errorf("user %s has invalid role %q", u.Email, u.Role)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", u.Email, err)
		}

		var id int32
		err = tx.QueryRow(`
			INSERT INTO users (name, email, password_hash, role, phone, address)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, updated_at = now()
			RETURNING id
		`, u.Name, u.Email, string(hash), string(role), u.Phone, u.Address).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}
		log.Printf("  user %d: %s (%s)", id, u.Email, role)
	}

	for _, p := range data.Products {
		var id int32
		err := tx.QueryRow(`
			INSERT INTO products (name, description, category, quantity)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, p.Name, p.Description, p.Category, p.Quantity).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to create product %s: %w", p.Name, err)
		}

		for _, price := range p.Pricing {
			if !domain.PricingUnit(price.UnitType).Valid() {
				return fmt.Errorf("product %s has invalid unit type %q", p.Name, price.UnitType)
			}
			minDuration := price.MinDuration
			if minDuration <= 0 {
				minDuration = 1
			}
			_, err := tx.Exec(`
				INSERT INTO product_pricing (product_id, unit_type, price_per_unit_cents, min_duration)
				VALUES ($1, $2, $3, $4)
			`, id, price.UnitType, price.PriceCents, minDuration)
			if err != nil {
				return fmt.Errorf("failed to price product %s: %w", p.Name, err)
			}
		}
		log.Printf("  product %d: %s x%d", id, p.Name, p.Quantity)
	}

	return tx.Commit()
}
