package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"gobasket/domain/basket"
)

// PlantedRule forces consequent into a basket with the given probability
// whenever antecedent is already in it.
type PlantedRule struct {
	Antecedent  string  `json:"antecedent"`
	Consequent  string  `json:"consequent"`
	Probability float64 `json:"probability"`
}

// BasketGeneratorConfig configures the basket data generator
type BasketGeneratorConfig struct {
	BasketCount       int           `json:"basket_count"`
	ProductCount      int           `json:"product_count"`
	BrandCount        int           `json:"brand_count"`
	CategoryCount     int           `json:"category_count"`
	AvgLinesPerBasket float64       `json:"avg_lines_per_basket"`
	DuplicateLineRate float64       `json:"duplicate_line_rate"`
	PlantedRules      []PlantedRule `json:"planted_rules"`
	Seed              int64         `json:"seed"`
}

// DefaultBasketConfig returns sensible defaults for basket data generation
func DefaultBasketConfig() BasketGeneratorConfig {
	return BasketGeneratorConfig{
		BasketCount:       2000,
		ProductCount:      60,
		BrandCount:        12,
		CategoryCount:     8,
		AvgLinesPerBasket: 4.0,
		DuplicateLineRate: 0.15,
		PlantedRules: []PlantedRule{
			{Antecedent: "Pasta", Consequent: "Tomato Sauce", Probability: 0.85},
			{Antecedent: "Chips", Consequent: "Salsa", Probability: 0.6},
		},
		Seed: 42,
	}
}

type product struct {
	name     string
	brand    string
	category string
	group    string
}

// BasketGenerator generates line-level retail transactions
type BasketGenerator struct {
	config  BasketGeneratorConfig
	rng     *rand.Rand
	catalog []product
	byName  map[string]product
}

// NewBasketGenerator creates a new basket generator with a seeded catalog
func NewBasketGenerator(config BasketGeneratorConfig) *BasketGenerator {
	if config.BrandCount <= 0 {
		config.BrandCount = 1
	}
	if config.CategoryCount <= 0 {
		config.CategoryCount = 1
	}

	g := &BasketGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
		byName: make(map[string]product),
	}

	for i := 0; i < config.ProductCount; i++ {
		category := i % config.CategoryCount
		g.addProduct(product{
			name:     fmt.Sprintf("Prod_%03d", i+1),
			brand:    fmt.Sprintf("Brand_%02d", i%config.BrandCount+1),
			category: fmt.Sprintf("Category_%02d", category+1),
			group:    fmt.Sprintf("Group_%c", 'A'+rune(category%3)),
		})
	}
	for _, rule := range config.PlantedRules {
		for _, name := range []string{rule.Antecedent, rule.Consequent} {
			if _, ok := g.byName[name]; !ok {
				g.addProduct(product{name: name, brand: "House", category: "Planted", group: "Group_P"})
			}
		}
	}

	return g
}

func (g *BasketGenerator) addProduct(p product) {
	g.catalog = append(g.catalog, p)
	g.byName[p.name] = p
}

// Dataset generates a complete dataset tracking item, brand, category and group
func (g *BasketGenerator) Dataset() *basket.Dataset {
	return basket.NewDataset("synthetic_baskets", []string{
		basket.DimensionItem,
		basket.DimensionBrand,
		basket.DimensionCategory,
		basket.DimensionGroup,
	}, g.GenerateRecords())
}

// GenerateRecords generates line-level records for every basket
func (g *BasketGenerator) GenerateRecords() []basket.Record {
	var records []basket.Record

	for i := 0; i < g.config.BasketCount; i++ {
		txID := fmt.Sprintf("receipt_%06d", i+1)
		for _, p := range g.generateBasket() {
			rec := g.record(txID, p)
			records = append(records, rec)
			// repeated lines model quantity > 1 scanned separately
			if g.rng.Float64() < g.config.DuplicateLineRate {
				records = append(records, g.record(txID, p))
			}
		}
	}

	return records
}

// generateBasket picks the products of one basket, then applies planted rules
func (g *BasketGenerator) generateBasket() []product {
	lines := int(math.Round(g.config.AvgLinesPerBasket + g.rng.NormFloat64()))
	if lines < 1 {
		lines = 1
	}

	picked := make([]product, 0, lines+len(g.config.PlantedRules))
	inBasket := make(map[string]bool)
	for i := 0; i < lines && len(g.catalog) > 0; i++ {
		p := g.catalog[g.rng.Intn(len(g.catalog))]
		picked = append(picked, p)
		inBasket[p.name] = true
	}

	for _, rule := range g.config.PlantedRules {
		if inBasket[rule.Antecedent] && !inBasket[rule.Consequent] && g.rng.Float64() < rule.Probability {
			picked = append(picked, g.byName[rule.Consequent])
			inBasket[rule.Consequent] = true
		}
	}

	return picked
}

func (g *BasketGenerator) record(txID string, p product) basket.Record {
	return basket.Record{
		TransactionID: txID,
		Values: map[string]string{
			basket.DimensionItem:     p.name,
			basket.DimensionBrand:    p.brand,
			basket.DimensionCategory: p.category,
			basket.DimensionGroup:    p.group,
		},
	}
}
