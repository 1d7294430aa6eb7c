// Command seed-catalog loads catalog products from JSON files (plain or
// gzip-compressed) into the database and optionally bootstraps the first
// admin account.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/tastycart/storefront/internal/domain/account"
	"github.com/tastycart/storefront/internal/domain/product"
	"github.com/tastycart/storefront/internal/storage/postgres"
)

type productJSON struct {
	ID          string          `json:"id"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

func main() {
	var (
		databaseURL   string
		productsFiles string
		adminUsername string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFiles, "products-files", "db/seed/products.json", "comma-separated product JSON files (.json or .json.gz)")
	flag.StringVar(&adminUsername, "admin-username", "", "bootstrap admin username (optional)")
	flag.StringVar(&adminEmail, "admin-email", "", "bootstrap admin email")
	flag.StringVar(&adminPassword, "admin-password", "", "bootstrap admin password (or STORE_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("STORE_SEED_ADMIN_PASSWORD")
	}
	if adminUsername != "" && adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or STORE_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	files := strings.Split(productsFiles, ",")
	if err := run(ctx, databaseURL, files, adminUsername, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, adminUsername, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products := postgres.NewProductRepository(pool)
	if err := seedProducts(ctx, products, files); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if adminUsername != "" {
		accounts := postgres.NewAccountRepository(pool)
		if err := seedAdmin(ctx, accounts, adminUsername, adminEmail, adminPassword); err != nil {
			return errors.Wrap(err, "seed admin account")
		}
	}

	return nil
}

// seedProducts reads each file concurrently, then upserts the merged
// catalog.
func seedProducts(ctx context.Context, repo *postgres.ProductRepository, files []string) error {
	parsed := make([][]productJSON, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ps, err := readProductsFile(strings.TrimSpace(f))
			if err != nil {
				return errors.Wrapf(err, "read %s", f)
			}
			parsed[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var total int
	for _, ps := range parsed {
		total += len(ps)
	}
	slog.Info("upserting products", slog.Int("count", total))

	for _, ps := range parsed {
		for _, in := range ps {
			p := product.Product{
				ID:          in.ID,
				Name:        in.ProductName,
				Price:       in.Price,
				Description: in.Description,
				Quantity:    in.Quantity,
				Category:    in.Category,
				Image:       in.Image,
			}
			if p.ID == "" {
				p.ID = uuid.New().String()
			}
			if err := p.Validate(); err != nil {
				return errors.Wrapf(err, "product %q", p.Name)
			}
			if err := repo.Upsert(ctx, &p); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.ID)
			}

			slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
		}
	}

	return nil
}

// readProductsFile parses one JSON catalog file, transparently handling
// gzip compression by extension.
func readProductsFile(path string) ([]productJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var products []productJSON
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}
	return products, nil
}

// seedAdmin creates the first administrator account. An existing account
// with the same username is left untouched.
func seedAdmin(ctx context.Context, accounts *postgres.AccountRepository, username, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	a := &account.Account{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         account.RoleAdmin,
	}
	if err := accounts.Create(ctx, a); err != nil {
		if errors.Is(err, account.ErrConflict) {
			slog.Info("admin account already exists", slog.String("username", username))
			return nil
		}
		return err
	}

	slog.Info("created admin account", slog.String("username", username))
	return nil
}
