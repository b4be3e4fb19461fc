package domain

// Product Model
type Product struct {
	ID            uint   `gorm:"primaryKey" json:"id"`                                                                  // Primary key
	Name          string `gorm:"size:255;not null" json:"name"`                                                         // Product name
	CostPoints    int    `gorm:"not null;check:chk_products_cost,cost_points > 0" json:"cost_points"`                   // Price in points
	StockQuantity int    `gorm:"not null;default:0;check:chk_products_stock,stock_quantity >= 0" json:"stock_quantity"` // Units left, never negative
	IconName      string `gorm:"size:255;not null" json:"icon_name"`                                                    // Icon reference
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// DefaultCatalog is the vending machine catalog seeded into an empty products table.
func DefaultCatalog() []Product {
	return []Product{
		{Name: "Water", CostPoints: 15, StockQuantity: 11, IconName: "water.png"},
		{Name: "Drink", CostPoints: 25, StockQuantity: 15, IconName: "drink.png"},
		{Name: "Soda", CostPoints: 35, StockQuantity: 9, IconName: "soda.png"},
		{Name: "Snacks", CostPoints: 30, StockQuantity: 20, IconName: "Snacks.png"},
		{Name: "Chocolate", CostPoints: 50, StockQuantity: 13, IconName: "chocolate.png"},
		{Name: "Biscuit", CostPoints: 30, StockQuantity: 0, IconName: "biscuit.png"},
	}
}
