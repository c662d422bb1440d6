package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.ProductAddon{},
		&models.CartItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	return svc, db
}

func TestAddItemMergesSameSelection(t *testing.T) {
	cartSvc, db := setupCartServiceTest(t)
	product := seedCheckoutProduct(t, db, "merge-burger", "30.00")
	addonID := product.Addons[0].ID

	first, err := cartSvc.AddItem(AddItemInput{UserID: 1, ProductID: product.ID, Quantity: 1, AddonIDs: []uint{addonID}})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	merged, err := cartSvc.AddItem(AddItemInput{UserID: 1, ProductID: product.ID, Quantity: 2, AddonIDs: []uint{addonID}})
	if err != nil {
		t.Fatalf("merge add failed: %v", err)
	}
	if merged.ID != first.ID || merged.Quantity != 3 {
		t.Fatalf("expected merged row with quantity 3, got %+v", merged)
	}

	// 加料组合不同则另起一行
	plain, err := cartSvc.AddItem(AddItemInput{UserID: 1, ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("plain add failed: %v", err)
	}
	if plain.ID == first.ID {
		t.Fatal("expected a separate row for a different addon selection")
	}

	items, err := cartSvc.ListByUser(1)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 cart rows, got %d", len(items))
	}
}

func TestAddItemValidatesProductAndAddons(t *testing.T) {
	cartSvc, db := setupCartServiceTest(t)
	product := seedCheckoutProduct(t, db, "valid-burger", "30.00")
	other := seedCheckoutProduct(t, db, "other-burger", "25.00")

	if _, err := cartSvc.AddItem(AddItemInput{UserID: 1, ProductID: product.ID, Quantity: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero quantity, got %v", err)
	}
	if _, err := cartSvc.AddItem(AddItemInput{
		UserID: 1, ProductID: product.ID, Quantity: 1, AddonIDs: []uint{other.Addons[0].ID},
	}); !errors.Is(err, ErrAddonNotAvailable) {
		t.Fatalf("expected addon not available for foreign addon, got %v", err)
	}

	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	if _, err := cartSvc.AddItem(AddItemInput{UserID: 1, ProductID: product.ID, Quantity: 1}); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected product not available, got %v", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	cartSvc, db := setupCartServiceTest(t)
	product := seedCheckoutProduct(t, db, "qty-burger", "30.00")
	item, err := cartSvc.AddItem(AddItemInput{UserID: 2, ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	updated, err := cartSvc.UpdateQuantity(2, item.ID, 5)
	if err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if updated.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", updated.Quantity)
	}

	// 他人的购物车项不可操作
	if _, err := cartSvc.UpdateQuantity(3, item.ID, 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for foreign item, got %v", err)
	}

	// 数量归零等同删除
	deleted, err := cartSvc.UpdateQuantity(2, item.ID, 0)
	if err != nil {
		t.Fatalf("zero quantity failed: %v", err)
	}
	if deleted != nil {
		t.Fatalf("expected nil row after zeroing, got %+v", deleted)
	}
	items, err := cartSvc.ListByUser(2)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d rows", len(items))
	}
}

func TestRemoveAndClear(t *testing.T) {
	cartSvc, db := setupCartServiceTest(t)
	product := seedCheckoutProduct(t, db, "clear-burger", "30.00")
	item, err := cartSvc.AddItem(AddItemInput{UserID: 4, ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if err := cartSvc.RemoveItem(5, item.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for foreign removal, got %v", err)
	}
	if err := cartSvc.RemoveItem(4, item.ID); err != nil {
		t.Fatalf("remove item failed: %v", err)
	}

	if _, err := cartSvc.AddItem(AddItemInput{UserID: 4, ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if err := cartSvc.Clear(4); err != nil {
		t.Fatalf("clear cart failed: %v", err)
	}
	items, err := cartSvc.ListByUser(4)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected cleared cart, got %d rows", len(items))
	}
}
