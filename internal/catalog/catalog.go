// Package catalog serves the shop's products and the doctor directory from
// embedded YAML seed files.
package catalog

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var seedFS embed.FS

type Category struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type Product struct {
	ID                   string          `yaml:"id" json:"id"`
	Name                 string          `yaml:"name" json:"name"`
	Description          string          `yaml:"description" json:"description"`
	Price                decimal.Decimal `yaml:"price" json:"price"`
	Rating               float64         `yaml:"rating" json:"rating"`
	Image                string          `yaml:"image" json:"image"`
	Category             string          `yaml:"category" json:"category"`
	RequiresPrescription bool            `yaml:"requires_prescription" json:"requiresPrescription"`
	InStock              bool            `yaml:"in_stock" json:"inStock"`
	Discount             int             `yaml:"discount,omitempty" json:"discount,omitempty"`
	Brand                string          `yaml:"brand,omitempty" json:"brand,omitempty"`
	Contents             string          `yaml:"contents,omitempty" json:"contents,omitempty"`
}

type Doctor struct {
	ID                string          `yaml:"id" json:"id"`
	Name              string          `yaml:"name" json:"name"`
	Specialty         string          `yaml:"specialty" json:"specialty"`
	Specialization    []string        `yaml:"specialization" json:"specialization"`
	Image             string          `yaml:"image" json:"image"`
	Rating            float64         `yaml:"rating" json:"rating"`
	Experience        int             `yaml:"experience" json:"experience"`
	Location          string          `yaml:"location" json:"location"`
	Availability      string          `yaml:"availability" json:"availability"`
	ConsultationFee   decimal.Decimal `yaml:"consultation_fee" json:"consultationFee"`
	Verified          bool            `yaml:"verified" json:"verified"`
	Patients          int             `yaml:"patients" json:"patients"`
	NextAvailable     string          `yaml:"next_available" json:"nextAvailable"`
	AvailableToday    bool            `yaml:"available_today" json:"availableToday"`
	VideoConsultation bool            `yaml:"video_consultation" json:"videoConsultation"`
	About             string          `yaml:"about" json:"about"`
	Qualifications    []string        `yaml:"qualifications" json:"qualifications"`
	Languages         []string        `yaml:"languages" json:"languages"`
	Services          []string        `yaml:"services" json:"services"`
}

// Catalog is an immutable, concurrency safe product and doctor directory.
type Catalog struct {
	categories []Category
	products   []Product
	doctors    []Doctor
}

// Load parses the embedded seed catalogs.
func Load() (*Catalog, error) {
	products, err := seedFS.ReadFile("data/products.yaml")
	if err != nil {
		return nil, err
	}
	doctors, err := seedFS.ReadFile("data/doctors.yaml")
	if err != nil {
		return nil, err
	}
	return Parse(products, doctors)
}

// Parse builds a catalog from YAML documents.
func Parse(productsYAML, doctorsYAML []byte) (*Catalog, error) {
	var shop struct {
		Categories []Category `yaml:"categories"`
		Products   []Product  `yaml:"products"`
	}
	if err := yaml.Unmarshal(productsYAML, &shop); err != nil {
		return nil, fmt.Errorf("failed to parse products: %w", err)
	}

	var directory struct {
		Doctors []Doctor `yaml:"doctors"`
	}
	if err := yaml.Unmarshal(doctorsYAML, &directory); err != nil {
		return nil, fmt.Errorf("failed to parse doctors: %w", err)
	}

	seen := make(map[string]bool)
	for _, p := range shop.Products {
		if p.ID == "" || seen["p:"+p.ID] {
			return nil, fmt.Errorf("product id %q is empty or duplicated", p.ID)
		}
		seen["p:"+p.ID] = true
	}
	for _, d := range directory.Doctors {
		if d.ID == "" || seen["d:"+d.ID] {
			return nil, fmt.Errorf("doctor id %q is empty or duplicated", d.ID)
		}
		seen["d:"+d.ID] = true
	}

	return &Catalog{
		categories: shop.Categories,
		products:   shop.Products,
		doctors:    directory.Doctors,
	}, nil
}

func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Product sort orders.
const (
	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
)

// ProductFilter narrows Products. Zero values match everything.
type ProductFilter struct {
	Category     string
	Query        string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	InStockOnly  bool
	Prescription *bool
	Sort         string
}

// Products returns the matching products, sorted by name unless Sort says otherwise.
func (c *Catalog) Products(f ProductFilter) []Product {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if f.Category != "" && f.Category != "all" && p.Category != f.Category {
			continue
		}
		if query != "" && !containsFold(query, p.Name, p.Description, p.Brand) {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.InStockOnly && !p.InStock {
			continue
		}
		if f.Prescription != nil && p.RequiresPrescription != *f.Prescription {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f.Sort {
		case SortPriceLow:
			return a.Price.LessThan(b.Price)
		case SortPriceHigh:
			return a.Price.GreaterThan(b.Price)
		case SortRating:
			return a.Rating > b.Rating
		default:
			return a.Name < b.Name
		}
	})
	return out
}

// Product looks a product up by id.
func (c *Catalog) Product(id string) (Product, bool) {
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Doctor sort orders.
const (
	SortExperience = "experience"
	SortFeeLow     = "fee-low"
	SortFeeHigh    = "fee-high"
)

// DoctorFilter narrows Doctors. Zero values match everything.
type DoctorFilter struct {
	Specialty         string
	// Condition matches a specialization entry exactly, e.g. a classifier label like "mel".
	Condition         string
	Query             string
	MaxFee            *decimal.Decimal
	AvailableToday    bool
	VideoConsultation bool
	Sort              string
}

// Doctors returns the matching doctors, best rated first unless Sort says otherwise.
func (c *Catalog) Doctors(f DoctorFilter) []Doctor {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	condition := strings.ToLower(strings.TrimSpace(f.Condition))

	out := make([]Doctor, 0, len(c.doctors))
	for _, d := range c.doctors {
		if f.Specialty != "" && f.Specialty != "all" && !strings.EqualFold(d.Specialty, f.Specialty) {
			continue
		}
		if condition != "" && !equalsAnyFold(condition, d.Specialization) {
			continue
		}
		if query != "" && !containsFold(query, append([]string{d.Name, d.Specialty, d.Location}, d.Specialization...)...) {
			continue
		}
		if f.MaxFee != nil && d.ConsultationFee.GreaterThan(*f.MaxFee) {
			continue
		}
		if f.AvailableToday && !d.AvailableToday {
			continue
		}
		if f.VideoConsultation && !d.VideoConsultation {
			continue
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f.Sort {
		case SortExperience:
			return a.Experience > b.Experience
		case SortFeeLow:
			return a.ConsultationFee.LessThan(b.ConsultationFee)
		case SortFeeHigh:
			return a.ConsultationFee.GreaterThan(b.ConsultationFee)
		default:
			return a.Rating > b.Rating
		}
	})
	return out
}

// Doctor looks a doctor up by id.
func (c *Catalog) Doctor(id string) (Doctor, bool) {
	for _, d := range c.doctors {
		if d.ID == id {
			return d, true
		}
	}
	return Doctor{}, false
}

func containsFold(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func equalsAnyFold(needle string, values []string) bool {
	for _, v := range values {
		if strings.EqualFold(v, needle) {
			return true
		}
	}
	return false
}
