package repository

import (
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"products-api/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var testColl *mongo.Collection

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		return nil, err
	}

	uri, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		return mongoContainer.Terminate, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return mongoContainer.Terminate, err
	}

	testColl = client.Database("products_test").Collection("products")
	return mongoContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start mongodb container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Printf("could not terminate mongodb container: %v", err)
		}
	}
}

func TestParseProductID(t *testing.T) {
	oid := primitive.NewObjectID()

	parsed, err := ParseProductID(oid.Hex())
	if err != nil {
		t.Fatalf("ParseProductID(%q) returned error: %v", oid.Hex(), err)
	}
	if parsed != oid {
		t.Errorf("ParseProductID round-trip mismatch: got %s, want %s", parsed.Hex(), oid.Hex())
	}

	malformed := []string{
		"",
		"not-an-id",
		"123",
		strings.Repeat("z", 24), // right length, wrong charset
		oid.Hex() + "ff",        // too long
		oid.Hex()[:23],          // too short
	}

	for _, id := range malformed {
		_, err := ParseProductID(id)
		if !errors.Is(err, ErrInvalidProductID) {
			t.Errorf("ParseProductID(%q): got %v, want ErrInvalidProductID", id, err)
		}
	}
}

func TestProductRepository_CreateAssignsID(t *testing.T) {
	repo := NewProductRepository(testColl)
	ctx := context.Background()

	product := &domain.Product{
		Name:          "Laptop",
		Price:         999.99,
		Category:      domain.CategoryElectronics,
		HasActiveSale: false,
	}

	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if product.ID.IsZero() {
		t.Fatal("Create did not assign an id")
	}

	found, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if *found != *product {
		t.Errorf("round-trip mismatch: got %+v, want %+v", found, product)
	}
}

func TestProductRepository_FindByID_NotFound(t *testing.T) {
	repo := NewProductRepository(testColl)

	_, err := repo.FindByID(context.Background(), primitive.NewObjectID())
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("got %v, want ErrProductNotFound", err)
	}
}

func TestProductRepository_ReplaceSwapsAllFields(t *testing.T) {
	repo := NewProductRepository(testColl)
	ctx := context.Background()

	product := &domain.Product{
		Name:          "Paperback",
		Price:         12.50,
		Category:      domain.CategoryBooks,
		HasActiveSale: false,
	}
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	replacement := &domain.Product{
		ID:            primitive.NewObjectID(), // payload id must be ignored
		Name:          "Paperback",
		Price:         8.99,
		Category:      domain.CategoryOther,
		HasActiveSale: false,
	}

	updated, err := repo.Replace(ctx, product.ID, replacement)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if updated.ID != product.ID {
		t.Errorf("Replace changed the id: got %s, want %s", updated.ID.Hex(), product.ID.Hex())
	}

	found, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("FindByID after replace failed: %v", err)
	}
	if found.Price != 8.99 || found.Category != domain.CategoryOther {
		t.Errorf("replace not reflected: got %+v", found)
	}
	if found.Name != "Paperback" || found.HasActiveSale {
		t.Errorf("unchanged fields drifted: got %+v", found)
	}
}

func TestProductRepository_Replace_NotFound(t *testing.T) {
	repo := NewProductRepository(testColl)

	product := &domain.Product{
		Name:     "Ghost",
		Price:    1,
		Category: domain.CategoryOther,
	}

	_, err := repo.Replace(context.Background(), primitive.NewObjectID(), product)
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("got %v, want ErrProductNotFound", err)
	}
}

func TestProductRepository_DeleteThenFind(t *testing.T) {
	repo := NewProductRepository(testColl)
	ctx := context.Background()

	product := &domain.Product{
		Name:          "Snack",
		Price:         2.49,
		Category:      domain.CategoryFood,
		HasActiveSale: true,
	}
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(ctx, product.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := repo.FindByID(ctx, product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("find after delete: got %v, want ErrProductNotFound", err)
	}

	// Repeated delete on the same id is a not-found, not a storage error.
	if err := repo.Delete(ctx, product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("repeat delete: got %v, want ErrProductNotFound", err)
	}
}

func TestProductRepository_ListMaterializesAll(t *testing.T) {
	coll := testColl.Database().Collection("products_list_test")
	repo := NewProductRepository(coll)
	ctx := context.Background()

	listed, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List on empty collection failed: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected empty list, got %d products", len(listed))
	}

	want := map[string]*domain.Product{}
	for _, p := range []*domain.Product{
		{Name: "A", Price: 1, Category: domain.CategoryFood},
		{Name: "B", Price: 2, Category: domain.CategoryBooks, HasActiveSale: true},
		{Name: "C", Price: 3, Category: domain.CategoryClothing},
	} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		want[p.ID.Hex()] = p
	}

	listed, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != len(want) {
		t.Fatalf("List returned %d products, want %d", len(listed), len(want))
	}
	for _, got := range listed {
		expected, ok := want[got.ID.Hex()]
		if !ok {
			t.Errorf("List returned unknown product %s", got.ID.Hex())
			continue
		}
		if *got != *expected {
			t.Errorf("List mismatch: got %+v, want %+v", got, expected)
		}
	}
}

func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	repo := NewProductRepository(testColl)

	categories := domain.Categories()

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, price float64, categoryIdx int, hasActiveSale bool) bool {
			ctx := context.Background()

			if name == "" {
				return true // invalid input, filtered by the validation layer
			}
			if price < 0 {
				price = -price
			}

			product := &domain.Product{
				Name:          name,
				Price:         price,
				Category:      categories[categoryIdx%len(categories)],
				HasActiveSale: hasActiveSale,
			}

			if err := repo.Create(ctx, product); err != nil {
				t.Logf("FAIL: Create returned error: %v", err)
				return false
			}

			found, err := repo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: FindByID returned error: %v", err)
				return false
			}

			return *found == *product
		},
		gen.AlphaString(),
		gen.Float64Range(0, 1e9),
		gen.IntRange(0, 100),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
