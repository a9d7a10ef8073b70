package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/notify"
	"storefront/internal/router"
	"storefront/internal/session"
	"storefront/internal/storefront"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const cookieName = "sf_session"

// TestDB represents a session database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
}

// SetupTestDB starts a PostgreSQL container and creates the sessions table.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	pool, err := database.NewPool(ctx, config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := session.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return &TestDB{Container: postgresContainer, Pool: pool}
}

// FakeBackend is a scripted marketplace backend.
type FakeBackend struct {
	*httptest.Server

	mu   sync.Mutex
	cart []map[string]any
}

// NewFakeBackend serves one retailer with a small catalogue, a customer
// account and a cart.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	b := &FakeBackend{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/customer/login/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username != "+919876543210" || body.Password != "secret" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"tokens": map[string]string{"access": "access-1", "refresh": "refresh-1"},
			"user":   map[string]any{"id": 3, "username": "+919876543210", "first_name": "Asha"},
		})
	})
	mux.HandleFunc("GET /api/retailers/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{retailer()})
	})
	mux.HandleFunc("GET /api/retailers/1/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, retailer())
	})
	mux.HandleFunc("GET /api/products/retailer/1/categories/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 4, "name": "Fruit"}})
	})
	mux.HandleFunc("GET /api/products/retailer/1/featured/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{product()})
	})
	mux.HandleFunc("POST /api/cart/add/", b.requireToken(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.cart = append(b.cart, map[string]any{
			"id":           len(b.cart) + 1,
			"product_id":   body["product_id"],
			"product_name": "Mango",
			"quantity":     body["quantity"],
		})
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Added to cart"})
	}))
	mux.HandleFunc("GET /api/cart/", b.requireToken(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"id":          1,
			"retailer_id": 1,
			"items":       b.cart,
			"total_items": len(b.cart),
		})
	}))
	mux.HandleFunc("GET /api/customer/addresses/", b.requireToken(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 8, "address_line1": "1 FC Road", "city": "Pune", "state": "Maharashtra", "pincode": "411004"},
			{"id": 9, "address_line1": "2 MG Road", "city": "Pune", "state": "Maharashtra", "pincode": "411001", "is_default": true},
		})
	}))

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

// CartLines returns the number of lines added to the cart.
func (b *FakeBackend) CartLines() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cart)
}

func (b *FakeBackend) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		next(w, r)
	}
}

func retailer() map[string]any {
	return map[string]any{"id": 1, "shop_name": "Green Grocer", "city": "Pune"}
}

func product() map[string]any {
	return map[string]any{"id": 12, "name": "Mango", "price": "120.00"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewServer wires a storefront server over the given session database and
// backend. Servers sharing a database share their sessions.
func NewServer(t *testing.T, db *TestDB, backend *FakeBackend) http.Handler {
	t.Helper()

	logger := zerolog.Nop()
	manager := storefront.NewManager(storefront.Options{
		Backend:     config.BackendConfig{BaseURL: backend.URL + "/api/", RefreshPath: "auth/token/refresh/"},
		CacheTTL:    time.Minute,
		Sessions:    session.NewPostgresStore(db.Pool, logger),
		HTTPClient:  backend.Client(),
		Broadcaster: notify.NewMemoryBroadcaster(),
		Logger:      logger,
	})
	t.Cleanup(func() { _ = manager.Close() })

	cfg := config.SessionConfig{CookieName: cookieName, IdleTimeout: 30 * time.Minute}
	return router.New(router.NewHandlers(logger), manager, cfg, logger)
}
