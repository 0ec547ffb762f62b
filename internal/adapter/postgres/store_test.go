package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Strob0t/PlanForge/internal/adapter/postgres"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// testDSN returns DATABASE_URL, starts a throwaway container when
// PLANFORGE_TESTCONTAINERS=1, or skips the test.
func testDSN(t *testing.T) string {
	t.Helper()

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	if os.Getenv("PLANFORGE_TESTCONTAINERS") != "1" {
		t.Skip("requires DATABASE_URL or PLANFORGE_TESTCONTAINERS=1")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("planforge"),
		tcpostgres.WithUsername("planforge"),
		tcpostgres.WithPassword("planforge"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	return dsn
}

// setupStore creates a pgxpool connection, runs all migrations, and returns a
// ready-to-use Store. The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := testDSN(t)
	ctx := context.Background()

	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return postgres.NewStore(pool)
}

func newOwner() string {
	return "owner-" + uuid.NewString()[:8]
}

func samplePlan(title string) *plan.Plan {
	tmpl := "web-app-saas"
	p := &plan.Plan{
		ID:           uuid.NewString(),
		Title:        title,
		OriginalIdea: "A todo app for remote teams",
		Summary:      "Shared task lists",
		Features:     plan.Features{MVP: []string{"Lists", "Sharing"}},
		Roadmap:      plan.Roadmap{Phases: []plan.Phase{{Title: "MVP", Duration: "4 weeks", Tasks: []string{"Auth"}}}},
		TemplateID:   &tmpl,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	p.Normalize()
	return p
}

func TestPlanStore_SaveAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	owner := newOwner()

	p := samplePlan("Todo")
	id, err := store.SavePlan(ctx, owner, p)
	if err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if id != p.ID {
		t.Fatalf("expected generated id to be kept, got %s want %s", id, p.ID)
	}
	if p.Version != 1 {
		t.Fatalf("expected version 1, got %d", p.Version)
	}

	got, err := store.GetPlan(ctx, id, owner)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.Title != "Todo" || got.OwnerID != owner {
		t.Errorf("unexpected plan %+v", got)
	}
	if len(got.Features.MVP) != 2 || got.Roadmap.Phases[0].Tasks[0] != "Auth" {
		t.Errorf("sections not round-tripped: %+v", got.Sections())
	}
	if got.TemplateID == nil || *got.TemplateID != "web-app-saas" {
		t.Errorf("unexpected template id %v", got.TemplateID)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("createdAt changed: %v vs %v", got.CreatedAt, p.CreatedAt)
	}
}

func TestPlanStore_SaveAssignsIDWhenMissing(t *testing.T) {
	store := setupStore(t)
	p := samplePlan("No id")
	p.ID = "not-a-uuid"
	id, err := store.SavePlan(context.Background(), newOwner(), p)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid, got %q", id)
	}
}

func TestPlanStore_SaveDuplicateConflicts(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	owner := newOwner()
	p := samplePlan("Dup")
	if _, err := store.SavePlan(ctx, owner, p); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SavePlan(ctx, owner, p); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestPlanStore_OwnerIsolation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	p := samplePlan("Private")
	id, err := store.SavePlan(ctx, newOwner(), p)
	if err != nil {
		t.Fatal(err)
	}

	other := newOwner()
	if _, err := store.GetPlan(ctx, id, other); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other owner, got %v", err)
	}
	if err := store.DeletePlan(ctx, id, other); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting other owner's plan, got %v", err)
	}
	plans, err := store.ListPlans(ctx, other, plan.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 0 {
		t.Errorf("expected no plans for other owner, got %d", len(plans))
	}
}

func TestPlanStore_GetMalformedID(t *testing.T) {
	store := setupStore(t)
	if _, err := store.GetPlan(context.Background(), "nope", newOwner()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlanStore_ListPaging(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	owner := newOwner()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, title := range []string{"first", "second", "third"} {
		p := samplePlan(title)
		p.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if _, err := store.SavePlan(ctx, owner, p); err != nil {
			t.Fatal(err)
		}
	}

	page, err := store.ListPlans(ctx, owner, plan.ListOptions{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Title != "third" || page[1].Title != "second" {
		t.Fatalf("unexpected first page %v", titles(page))
	}

	page, err = store.ListPlans(ctx, owner, plan.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Title != "first" {
		t.Fatalf("unexpected second page %v", titles(page))
	}
}

func TestPlanStore_UpdateOptimisticLocking(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	owner := newOwner()

	p := samplePlan("Before")
	if _, err := store.SavePlan(ctx, owner, p); err != nil {
		t.Fatal(err)
	}

	stale := *p
	p.Title = "After"
	p.Summary = "changed"
	if err := store.UpdatePlan(ctx, owner, p); err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}
	if p.Version != 2 {
		t.Fatalf("expected version 2, got %d", p.Version)
	}

	stale.Title = "Lost update"
	if err := store.UpdatePlan(ctx, owner, &stale); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := store.GetPlan(ctx, p.ID, owner)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "After" || got.Summary != "changed" {
		t.Errorf("unexpected stored plan %q / %q", got.Title, got.Summary)
	}

	missing := samplePlan("missing")
	missing.Version = 1
	if err := store.UpdatePlan(ctx, owner, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPlanStore_Delete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	owner := newOwner()

	p := samplePlan("Gone")
	id, err := store.SavePlan(ctx, owner, p)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.DeletePlan(ctx, id, owner); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if err := store.DeletePlan(ctx, id, owner); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func titles(plans []plan.Plan) []string {
	out := make([]string, len(plans))
	for i := range plans {
		out[i] = plans[i].Title
	}
	return out
}
