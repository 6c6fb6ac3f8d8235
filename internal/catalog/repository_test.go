package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/forno-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:catalog?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS products`).Error)
	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS categories`).Error)
	categories := `
CREATE TABLE categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE products (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  code TEXT,
  price NUMERIC NOT NULL,
  option_groups TEXT,
  position INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(categories).Error)
	require.NoError(t, db.Exec(products).Error)
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) (pizzas models.Category, calabresa models.Product) {
	t.Helper()

	drinks := models.Category{ID: uuid.New(), Name: "Bebidas", Position: 2, IsActive: true}
	pizzas = models.Category{ID: uuid.New(), Name: "Pizzas", Position: 1, IsActive: true}
	require.NoError(t, db.Create(&drinks).Error)
	require.NoError(t, db.Create(&pizzas).Error)

	code := "P12"
	calabresa = models.Product{
		ID:         uuid.New(),
		CategoryID: pizzas.ID,
		Name:       "Calabresa",
		Code:       &code,
		Price:      decimal.RequireFromString("45.00"),
		OptionGroups: types.OptionGroups{{
			Name:     "Borda",
			Choices:  []types.OptionChoice{{Name: "Catupiry", Price: decimal.RequireFromString("8.00")}},
			Required: false,
		}},
		Position: 2,
		IsActive: true,
	}
	margherita := models.Product{ID: uuid.New(), CategoryID: pizzas.ID, Name: "Margherita", Price: decimal.RequireFromString("42.00"), Position: 1, IsActive: true}
	hidden := models.Product{ID: uuid.New(), CategoryID: pizzas.ID, Name: "Fora do cardápio", Price: decimal.RequireFromString("1.00"), Position: 0, IsActive: true}
	guarana := models.Product{ID: uuid.New(), CategoryID: drinks.ID, Name: "Guaraná 2L", Price: decimal.RequireFromString("12.00"), IsActive: true}
	for _, p := range []*models.Product{&calabresa, &margherita, &hidden, &guarana} {
		require.NoError(t, db.Create(p).Error)
	}
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", hidden.ID).Update("is_active", false).Error)
	return pizzas, calabresa
}

func TestServiceMenuOrdersCategoriesAndProducts(t *testing.T) {
	db := setupCatalogTestDB(t)
	pizzas, _ := seedCatalog(t, db)

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	menu, err := svc.Menu(context.Background())
	require.NoError(t, err)
	require.Len(t, menu.Categories, 2)

	first := menu.Categories[0]
	assert.Equal(t, pizzas.ID, first.ID)
	require.Len(t, first.Products, 2)
	assert.Equal(t, "Margherita", first.Products[0].Name)
	assert.Equal(t, "Calabresa", first.Products[1].Name)
	require.Len(t, first.Products[1].OptionGroups, 1)
	assert.Equal(t, "Catupiry", first.Products[1].OptionGroups[0].Choices[0].Name)
	assert.Equal(t, "Bebidas", menu.Categories[1].Name)
}

func TestServiceProductRefFreezesData(t *testing.T) {
	db := setupCatalogTestDB(t)
	_, calabresa := seedCatalog(t, db)

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	dto, err := svc.Product(context.Background(), calabresa.ID)
	require.NoError(t, err)

	ref := dto.Ref()
	assert.Equal(t, calabresa.ID, ref.ID)
	require.NotNil(t, ref.Code)
	assert.Equal(t, "P12", *ref.Code)
	assert.True(t, ref.UnitPrice.Equal(decimal.RequireFromString("45")))
}

func TestServiceProductNotFound(t *testing.T) {
	svc, err := NewService(NewRepository(setupCatalogTestDB(t)))
	require.NoError(t, err)

	_, err = svc.Product(context.Background(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

type failingRepo struct{ Repository }

func (failingRepo) ListCategories(context.Context) ([]models.Category, error) {
	return nil, errors.New("connection refused")
}

func TestServiceMenuDependencyFailure(t *testing.T) {
	svc, err := NewService(failingRepo{})
	require.NoError(t, err)

	_, err = svc.Menu(context.Background())
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}

func TestRepositorySaveMenuUpsertsAndDeactivatesMissing(t *testing.T) {
	db := setupCatalogTestDB(t)
	pizzas, calabresa := seedCatalog(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	price := decimal.RequireFromString("47.00")
	menu := Menu{Categories: []CategoryDTO{{
		ID:   pizzas.ID,
		Name: "Pizzas Salgadas",
		Products: []ProductDTO{{
			ID:    calabresa.ID,
			Name:  "Calabresa",
			Price: price,
		}},
	}}}

	res, err := repo.SaveMenu(ctx, menu)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Categories)
	assert.Equal(t, 1, res.Products)
	assert.EqualValues(t, 3, res.Deactivated, "margherita, guarana and the drinks category")

	categories, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Pizzas Salgadas", categories[0].Name)
	require.Len(t, categories[0].Products, 1)
	assert.True(t, categories[0].Products[0].Price.Equal(price))

	_, err = repo.SaveMenu(ctx, Menu{Categories: []CategoryDTO{{Name: "Sem id"}}})
	assert.Error(t, err)
}
