package testkit

import (
	"fmt"
	"strings"

	"gobasket/domain/basket"
)

// BreadButterMilk is the ten-receipt reference dataset:
//
//	support(Bread)=0.8 support(Butter)=0.7 support(Milk)=0.7
//	Bread and Butter share receipts 1,2,5,6,8,9
func BreadButterMilk() *basket.Dataset {
	baskets := [][]string{
		{"Bread", "Butter"},
		{"Bread", "Butter", "Milk"},
		{"Bread", "Milk"},
		{"Butter", "Milk"},
		{"Bread", "Butter"},
		{"Bread", "Butter", "Milk"},
		{"Milk"},
		{"Bread", "Butter", "Milk"},
		{"Bread", "Butter"},
		{"Bread", "Milk"},
	}
	categories := map[string]string{
		"Bread":  "Bakery",
		"Butter": "Dairy",
		"Milk":   "Dairy",
	}

	var records []basket.Record
	for i, items := range baskets {
		txID := fmt.Sprintf("T%02d", i+1)
		for _, item := range items {
			records = append(records, basket.Record{
				TransactionID: txID,
				Values: map[string]string{
					basket.DimensionItem:     item,
					basket.DimensionCategory: categories[item],
				},
			})
		}
	}

	return basket.NewDataset("bread_butter_milk", []string{basket.DimensionItem, basket.DimensionCategory}, records)
}

// Receipts builds a single-dimension dataset from compact receipt strings,
// e.g. Receipts("item", "a b", "a c") -> two transactions.
func Receipts(dimension string, receipts ...string) *basket.Dataset {
	var records []basket.Record
	for i, receipt := range receipts {
		txID := fmt.Sprintf("R%03d", i+1)
		for _, value := range strings.Fields(receipt) {
			records = append(records, basket.Record{
				TransactionID: txID,
				Values:        map[string]string{dimension: value},
			})
		}
	}
	return basket.NewDataset("receipts", []string{dimension}, records)
}
