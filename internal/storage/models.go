package storage

// NotApplicable fills fields that only exist for used vehicles.
const NotApplicable = "N/A"

// Row is one result row: lower-case column name to value as text.
// NULL reads as the empty string.
type Row map[string]string

// Vehicle is a used listing or a new model offered across stores.
type Vehicle struct {
	Category     string         `json:"category"`
	Make         string         `json:"make"`
	Model        string         `json:"model"`
	BodyStyle    string         `json:"body_style"`
	Year         int            `json:"year"`
	Price        int            `json:"price"`
	MPGCity      int            `json:"mpg_city"`
	MPGHwy       int            `json:"mpg_hwy"`
	Description  string         `json:"description"`
	Picture      string         `json:"picture"`
	VIN          string         `json:"vin"`
	IntColor     string         `json:"int_color"`
	ExtColor     string         `json:"ext_color"`
	Miles        int            `json:"miles"`
	Engine       string         `json:"engine"`
	Transmission string         `json:"transmission"`
	Inventory    map[string]int `json:"inventory,omitempty"` // store name -> units
}

// IsUsed reports whether the vehicle is a used listing.
func (v Vehicle) IsUsed() bool { return v.Category == "used" }

// TotalInventory sums units across stores.
func (v Vehicle) TotalInventory() int {
	total := 0
	for _, n := range v.Inventory {
		total += n
	}
	return total
}

// Dealership is one store location.
type Dealership struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
	City    string `json:"city" yaml:"city"`
	State   string `json:"state" yaml:"state"`
	Zip     string `json:"zip" yaml:"zip"`
	Phone   string `json:"phone" yaml:"phone"`
	Hours   string `json:"hours" yaml:"hours"`
}
