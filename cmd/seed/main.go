package main

import (
	"context"
	"errors"
	"log"

	"storefront/config"
	"storefront/internal/models"
	"storefront/internal/store"
)

type seedProduct struct {
	name        string
	slug        string
	description string
	price       int64
	inventory   int
}

var catalog = map[string]struct {
	name        string
	description string
	products    []seedProduct
}{
	"electronics": {
		name:        "Electronics",
		description: "Gadgets and devices",
		products: []seedProduct{
			{"Wireless Headphones", "wireless-headphones", "Over-ear, noise cancelling", 19999, 25},
			{"Smart Watch", "smart-watch", "Fitness tracking and notifications", 24999, 15},
			{"Bluetooth Speaker", "bluetooth-speaker", "Portable, 12h battery", 7999, 40},
		},
	},
	"books": {
		name:        "Books",
		description: "Paperbacks and hardcovers",
		products: []seedProduct{
			{"The Pragmatic Shopper", "the-pragmatic-shopper", "Essays on commerce", 2499, 50},
			{"Distributed Kitchens", "distributed-kitchens", "A cookbook for teams", 3499, 30},
		},
	},
	"clothing": {
		name:        "Clothing",
		description: "Everyday wear",
		products: []seedProduct{
			{"Classic T-Shirt", "classic-t-shirt", "100% cotton", 1999, 100},
			{"Hooded Sweatshirt", "hooded-sweatshirt", "Mid-weight fleece", 4499, 60},
		},
	},
}

// Seeds the demo catalog. Safe to run twice: existing slugs are left
// alone.
func main() {
	cfg := config.Load()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	for slug, entry := range catalog {
		category, err := db.GetCategoryBySlug(ctx, slug)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Fatalf("Failed to look up category %q: %v", slug, err)
			}
			category = &models.Category{
				Name:        entry.name,
				Slug:        slug,
				Description: entry.description,
			}
			if err := db.CreateCategory(ctx, category); err != nil {
				log.Fatalf("Failed to create category %q: %v", slug, err)
			}
			log.Printf("Created category: %s", slug)
		}

		for _, p := range entry.products {
			if _, err := db.GetProductBySlug(ctx, p.slug); err == nil {
				continue
			} else if !errors.Is(err, store.ErrNotFound) {
				log.Fatalf("Failed to look up product %q: %v", p.slug, err)
			}

			product := &models.Product{
				Name:        p.name,
				Slug:        p.slug,
				Description: p.description,
				Price:       p.price,
				CategoryID:  category.ID,
				Inventory:   p.inventory,
			}
			if err := db.CreateProduct(ctx, product); err != nil {
				log.Fatalf("Failed to create product %q: %v", p.slug, err)
			}
			log.Printf("Created product: %s", p.slug)
		}
	}

	log.Println("Seed complete")
}
