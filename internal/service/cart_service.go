package service

import (
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"
)

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// ListByUser 获取用户购物车
func (s *CartService) ListByUser(userID uint) ([]models.CartItem, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.cartRepo.ListByUser(userID)
}

// AddItemInput 加购参数
type AddItemInput struct {
	UserID    uint
	ProductID uint
	Quantity  int
	AddonIDs  []uint
	Remark    string
}

// AddItem 加购。菜品与加料都要求在售，加料必须属于该菜品。
// 同菜品同加料组合的已有行直接累加数量。
func (s *CartService) AddItem(input AddItemInput) (*models.CartItem, error) {
	if input.UserID == 0 || input.ProductID == 0 || input.Quantity <= 0 {
		return nil, ErrInvalidInput
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotAvailable
	}
	if _, _, err := resolveLineAddons(product, input.AddonIDs); err != nil {
		return nil, err
	}

	items, err := s.cartRepo.ListByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	for index := range items {
		item := &items[index]
		if item.ProductID == input.ProductID && sameAddonSet(item.AddonIDs, input.AddonIDs) {
			item.Quantity += input.Quantity
			if input.Remark != "" {
				item.Remark = input.Remark
			}
			if err := s.cartRepo.Update(item); err != nil {
				return nil, err
			}
			return item, nil
		}
	}

	item := &models.CartItem{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		AddonIDs:  models.UintArray(input.AddonIDs),
		Remark:    input.Remark,
	}
	if err := s.cartRepo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

func sameAddonSet(a models.UintArray, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uint]int, len(a))
	for _, id := range a {
		set[id]++
	}
	for _, id := range b {
		set[id]--
		if set[id] < 0 {
			return false
		}
	}
	return true
}

// UpdateQuantity 调整数量，数量归零等同删除
func (s *CartService) UpdateQuantity(userID, itemID uint, quantity int) (*models.CartItem, error) {
	if userID == 0 || itemID == 0 || quantity < 0 {
		return nil, ErrInvalidInput
	}
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.UserID != userID {
		return nil, ErrInvalidInput
	}
	if quantity == 0 {
		if err := s.cartRepo.Delete(item.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	item.Quantity = quantity
	if err := s.cartRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem 删除购物车项
func (s *CartService) RemoveItem(userID, itemID uint) error {
	if userID == 0 || itemID == 0 {
		return ErrInvalidInput
	}
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		return err
	}
	if item == nil || item.UserID != userID {
		return ErrInvalidInput
	}
	return s.cartRepo.Delete(item.ID)
}

// Clear 清空用户购物车
func (s *CartService) Clear(userID uint) error {
	if userID == 0 {
		return ErrInvalidInput
	}
	return s.cartRepo.ClearByUser(userID)
}

// checkoutLines 购物车转结账行
func checkoutLines(items []models.CartItem) []CheckoutLineInput {
	lines := make([]CheckoutLineInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, CheckoutLineInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddonIDs:  []uint(item.AddonIDs),
		})
	}
	return lines
}
