package model

import "fmt"

// Category identifies one class of upstream token event.
type Category string

const (
	CategoryMint          Category = "mint"
	CategoryBurn          Category = "burn"
	CategoryTransfer      Category = "transfer"
	CategoryBlacklisted   Category = "blacklisted"
	CategoryUnBlacklisted Category = "unblacklisted"
)

// Categories lists every category in processing order.
var Categories = []Category{
	CategoryMint,
	CategoryBurn,
	CategoryTransfer,
	CategoryBlacklisted,
	CategoryUnBlacklisted,
}

// ParseCategory validates a category name.
func ParseCategory(input string) (Category, error) {
	for _, c := range Categories {
		if string(c) == input {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown event category: %q", input)
}

func (c Category) String() string {
	return string(c)
}
