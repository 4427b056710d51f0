package inventory

type StockItem struct {
	ProductID string `json:"productId"`
	Available int    `json:"available"`
}

type Line struct {
	ProductID string
	Quantity  int
}
