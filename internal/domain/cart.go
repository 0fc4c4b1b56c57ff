package domain

// CartItem is one line of the cart. Name is unique within a cart.
type CartItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

func (i CartItem) Total() int64 {
	return i.Price * int64(i.Quantity)
}

func Subtotal(items []CartItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Total()
	}
	return sum
}

func ItemCount(items []CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
