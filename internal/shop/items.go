// Package shop redeems points for rewards.
package shop

// ItemType groups shop items.
type ItemType string

const (
	// ItemMinga is the school rewards currency.
	ItemMinga ItemType = "minga"
)

// Item is something points can buy.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PointsCost  int      `json:"pointsCost"`
	Type        ItemType `json:"type"`
	Image       string   `json:"image"`
}

var defaultItems = []Item{
	{
		ID:          "minga-5",
		Name:        "5 MINGA Points",
		Description: "Redeem for school rewards and privileges",
		PointsCost:  5000,
		Type:        ItemMinga,
		Image:       "/minga-logo.png",
	},
	{
		ID:          "minga-10",
		Name:        "10 MINGA Points (10% Off!)",
		Description: "Best value: save 10% on bulk purchase",
		PointsCost:  9000,
		Type:        ItemMinga,
		Image:       "/minga-logo.png",
	},
}

// Items returns the shop catalog in display order.
func Items() []Item {
	out := make([]Item, len(defaultItems))
	copy(out, defaultItems)
	return out
}

// Find returns the item with id.
func Find(id string) (Item, bool) {
	for _, it := range defaultItems {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
