package main

import "fmt"

// Product is a catalog entry. The catalog is static; everything the
// user does to their cart lives in the page tokens, not on the server.
type Product struct {
	SKU   string
	Name  string
	Cents int64
}

var catalog = []Product{
	{SKU: "mug-01", Name: "Enamel camping mug", Cents: 1400},
	{SKU: "tee-02", Name: "Gopher t-shirt", Cents: 2500},
	{SKU: "sck-03", Name: "Wool hiking socks", Cents: 900},
}

func productBySKU(sku string) (Product, bool) {
	for _, p := range catalog {
		if p.SKU == sku {
			return p, true
		}
	}
	return Product{}, false
}

// Shipping options offered by the rate-picker subroutine.
type ShippingOption struct {
	Code  string
	Label string
	Cents int64
}

var shippingOptions = []ShippingOption{
	{Code: "post", Label: "Standard post (5-7 days)", Cents: 400},
	{Code: "courier", Label: "Courier (2 days)", Cents: 900},
	{Code: "pickup", Label: "Store pickup", Cents: 0},
}

func shippingByCode(code string) (ShippingOption, bool) {
	for _, o := range shippingOptions {
		if o.Code == code {
			return o, true
		}
	}
	return ShippingOption{}, false
}

func dollars(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
