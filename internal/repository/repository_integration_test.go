//go:build integration
// +build integration

package repository

/*
	Para rodar: go test -tags=integration -v ./internal/repository -count=1

	obs: Rodar todos os de integração: go test -tags=integration -v ./... -count=1
*/

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Werneck0live/loja-precificacao/internal/db"
	"github.com/Werneck0live/loja-precificacao/internal/models"
	"github.com/Werneck0live/loja-precificacao/internal/pricing"
	"github.com/Werneck0live/loja-precificacao/internal/tax"
)

// Sobe um Mongo real por teste
func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	mongoC, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("start mongo: %v", err)
	}
	t.Cleanup(func() { _ = mongoC.Terminate(ctx) })

	uri, err := mongoC.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("conn string: %v", err)
	}
	client, err := db.NewMongoClient(uri)
	if err != nil {
		t.Fatalf("mongo client: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(ctx) })
	return client.Database("testdb")
}

// Exercita: Create -> GetByID -> Update -> Replace -> Delete
func TestTaxProfileRepository_Integration_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewTaxProfileRepository(startMongo(t))
	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	p := models.TaxProfile{
		ID:              "11222333000181",
		CNPJ:            "11222333000181",
		NomeFantasia:    "ACME",
		RazaoSocial:     "ACME LTDA",
		Anexo:           tax.AnnexIII,
		ReceitaBruta12M: models.NewDecimal(decimal.NewFromInt(300000)),
	}
	p.Recompute()

	id, err := repo.Create(ctx, &p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, &p); !errors.Is(err, ErrDuplicateCNPJ) {
		t.Fatalf("second create: want ErrDuplicateCNPJ, got %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Faixa != 2 || !got.ImpostoEstimado.Equal(decimal.NewFromInt(24240)) {
		t.Fatalf("estimate not persisted: %+v", got)
	}

	upd := models.TaxProfile{NomeFantasia: "ACME NEW"}
	if err := repo.Update(ctx, id, &upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	got2, _ := repo.GetByID(ctx, id)
	if got2.NomeFantasia != "ACME NEW" || got2.Faixa != 2 {
		t.Fatalf("after update: %+v", got2)
	}

	repl := *got2
	repl.ReceitaBruta12M = models.NewDecimal(decimal.NewFromInt(1000000))
	repl.Recompute()
	if err := repo.Replace(ctx, id, &repl); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got3, _ := repo.GetByID(ctx, id)
	if got3.Faixa != 4 {
		t.Fatalf("after replace faixa=%d", got3.Faixa)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestScheduleRepository_Integration_Activate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewScheduleRepository(startMongo(t))
	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	if _, err := repo.GetActive(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty collection: want ErrNotFound, got %v", err)
	}

	a := models.NewDiscountSchedule("padrao", "Padrão", pricing.DefaultSchedule())
	b := models.NewDiscountSchedule("atacado", "Atacado", pricing.NewSchedule(5,
		pricing.Tier{QuantityThreshold: 50, DiscountPercent: decimal.NewFromInt(12)},
	))
	for _, s := range []*models.DiscountSchedule{&a, &b} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create %s: %v", s.ID, err)
		}
	}
	if err := repo.Create(ctx, &a); !errors.Is(err, ErrDuplicateSchedule) {
		t.Fatalf("duplicate: want ErrDuplicateSchedule, got %v", err)
	}

	if err := repo.Activate(ctx, "padrao"); err != nil {
		t.Fatalf("activate padrao: %v", err)
	}
	if err := repo.Activate(ctx, "atacado"); err != nil {
		t.Fatalf("activate atacado: %v", err)
	}
	active, err := repo.GetActive(ctx)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.ID != "atacado" || active.MinQuantity != 5 {
		t.Fatalf("active=%+v", active)
	}
	old, _ := repo.GetByID(ctx, "padrao")
	if old.Active {
		t.Fatal("padrao should have been deactivated")
	}
	if !old.Schedule().ApplicableDiscount(25).Equal(decimal.NewFromInt(10)) {
		t.Fatalf("tiers did not round-trip: %+v", old.Tiers)
	}

	if err := repo.Activate(ctx, "nao-existe"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("activate missing: want ErrNotFound, got %v", err)
	}

	all, err := repo.GetAll(ctx, 10, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("get all: %d %v", len(all), err)
	}
}
