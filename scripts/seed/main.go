// Command seed loads demo master data into the backend through its REST API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/categories"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/units"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/warehouses"
)

func main() {
	baseURL := getenv("API_BASE_URL", "http://127.0.0.1:4000")
	client := api.NewClient(baseURL, 20*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	token, err := client.Login(ctx, getenv("SEED_USERNAME", "admin"), getenv("SEED_PASSWORD", "admin"))
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	ctx = api.ContextWithToken(ctx, token)

	fmt.Println("→ Seeding categories...")
	cats := api.NewResource[categories.Category](client, categories.Resource)
	for _, c := range []categories.Category{
		{Name: "Printers", Description: "Receipt and label printers"},
		{Name: "POS terminals", Description: "Counter hardware"},
		{Name: "Consumables", Description: "Paper rolls and ribbons"},
	} {
		must(cats.Create(ctx, c))
	}

	fmt.Println("→ Seeding units...")
	us := api.NewResource[units.Unit](client, units.Resource)
	for _, u := range []units.Unit{{Name: "Piece", Abbreviation: "pcs"}, {Name: "Box", Abbreviation: "box"}, {Name: "Roll", Abbreviation: "roll"}} {
		must(us.Create(ctx, u))
	}

	fmt.Println("→ Seeding warehouses...")
	whs := api.NewResource[warehouses.Warehouse](client, warehouses.Resource)
	must(whs.Create(ctx, warehouses.Warehouse{
		Name:         "Central",
		Location:     "Bangkok",
		ContactName:  "Warehouse desk",
		ContactTel:   "020000000",
		ContactEmail: "warehouse@example.com",
		ReceiveEmail: true,
	}))

	fmt.Println("✓ Seed complete")
}

func must[T any](_ T, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, api.ErrValidation) {
		log.Printf("skip: %v", err)
		return
	}
	log.Fatalf("seed: %v", err)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
