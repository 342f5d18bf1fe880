package domain

// BookingItem represents a line item in a booking, e.g. an adult or
// child ticket for the booked experience.
type BookingItem struct {
	ID          string `json:"id"`
	BookingID   string `json:"booking_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// LineTotal returns the total price for this line item.
func (i *BookingItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// TotalGuests sums the quantities across all line items.
func TotalGuests(items []BookingItem) int {
	var total int
	for i := range items {
		total += items[i].Quantity
	}
	return total
}
