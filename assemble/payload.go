// Package assemble turns product payloads into layout documents.
//
// Assembly is a pure data to block-tree transformation: it knows nothing
// about pages. Every block it emits is one unit the planner may move but
// never split.
package assemble

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ErrInvalidPayload is returned for payloads missing required fields or
// carrying negative amounts.
var ErrInvalidPayload = errors.New("assemble: invalid payload")

// Item is a single product as delivered by the application.
type Item struct {
	Name string `json:"name"`

	// Price is the regular unit price.
	Price float64 `json:"price"`

	// Discount is the discounted unit price. It only applies when it lies
	// strictly between zero and Price.
	Discount float64 `json:"discount"`

	Quantity int `json:"quantity"`

	// Description is rich-text markup.
	Description string `json:"description"`

	// Image is the main product image URL.
	Image string `json:"image,omitempty"`

	// Images are additional attachment image URLs.
	Images []string `json:"images,omitempty"`
}

// Group carries the metadata printed above a price list.
type Group struct {
	Name string `json:"name"`
}

// List is a group of items exported as one table.
type List struct {
	Group Group  `json:"group"`
	Items []Item `json:"items"`
}

// Payload holds either a single item or a list.
type Payload struct {
	Item *Item
	List *List
}

// DiscountActive reports whether discount is a real reduction of price.
func DiscountActive(price, discount float64) bool {
	return discount > 0 && discount < price
}

// Validate checks the fields assembly relies on.
func (it Item) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPayload)
	}
	if math.IsNaN(it.Price) || it.Price < 0 {
		return fmt.Errorf("%w: %q: price must be a non-negative number", ErrInvalidPayload, it.Name)
	}
	if math.IsNaN(it.Discount) || it.Discount < 0 {
		return fmt.Errorf("%w: %q: discount must be a non-negative number", ErrInvalidPayload, it.Name)
	}
	if it.Quantity < 0 {
		return fmt.Errorf("%w: %q: quantity must not be negative", ErrInvalidPayload, it.Name)
	}
	return nil
}

// Validate checks the group and every item of the list.
func (l List) Validate() error {
	if strings.TrimSpace(l.Group.Name) == "" {
		return fmt.Errorf("%w: group name is required", ErrInvalidPayload)
	}
	for i, it := range l.Items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

// jsonItem mirrors Item with a pointer price so a missing price is caught.
type jsonItem struct {
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Discount    float64  `json:"discount"`
	Quantity    int      `json:"quantity"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Images      []string `json:"images"`
}

func (j jsonItem) item() (Item, error) {
	if j.Price == nil {
		return Item{}, fmt.Errorf("%w: %q: price is required", ErrInvalidPayload, j.Name)
	}
	return Item{
		Name:        j.Name,
		Price:       *j.Price,
		Discount:    j.Discount,
		Quantity:    j.Quantity,
		Description: j.Description,
		Image:       j.Image,
		Images:      j.Images,
	}, nil
}

// Decode reads a JSON payload. An object with an "items" array is a list,
// anything else a single item.
func Decode(r io.Reader) (Payload, error) {
	var raw struct {
		jsonItem
		Group *Group     `json:"group"`
		Items []jsonItem `json:"items"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Payload{}, fmt.Errorf("%w: decoding JSON: %v", ErrInvalidPayload, err)
	}

	if raw.Items != nil || raw.Group != nil {
		l := &List{}
		if raw.Group != nil {
			l.Group = *raw.Group
		}
		for i, ji := range raw.Items {
			it, err := ji.item()
			if err != nil {
				return Payload{}, fmt.Errorf("row %d: %w", i+1, err)
			}
			l.Items = append(l.Items, it)
		}
		return Payload{List: l}, l.Validate()
	}

	it, err := raw.item()
	if err != nil {
		return Payload{}, err
	}
	return Payload{Item: &it}, it.Validate()
}
