// Package main provides a CLI tool for seeding the ledger with demo data.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"sealedger/internal/app"
	"sealedger/internal/config"
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/credittype"
	"sealedger/internal/domain/catalogs/employee"
	"sealedger/internal/domain/catalogs/farmer"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/catalogs/serviceprovider"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/internal/domain/credit"
	"sealedger/internal/domain/cultivation"
	"sealedger/internal/domain/modules"
	v1 "sealedger/internal/infrastructure/http/v1"
	"sealedger/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file")
	force := flag.Bool("force", false, "seed even when sites already exist")
	flag.Parse()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := logger.WithLogger(context.Background(), log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open ledger", "error", err)
	}
	defer func() { _ = a.Close(context.Background()) }()

	existing, err := a.Services.Sites.List(ctx, domain.ListFilter{Limit: 1})
	if err != nil {
		log.Fatalw("failed to list sites", "error", err)
	}
	if existing.TotalCount > 0 && !*force {
		log.Infow("ledger already has data, skipping seed", "sites", existing.TotalCount)
		return
	}

	if err := seedDemoData(ctx, a.Services, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}
	log.Info("seed completed")
}

// seedDemoData creates two sites with farmers, modules and a few cycles in
// different stages.
func seedDemoData(ctx context.Context, s v1.Services, log *logger.Logger) error {
	start := types.MustDate("2024-01-01")

	cottonii, err := s.SeaweedTypes.Create(ctx, seaweedtype.NewSeaweedType("Cottonii", types.NewMoney(400), types.NewMoney(1200), start))
	if err != nil {
		return fmt.Errorf("seaweed type: %w", err)
	}
	spinosum, err := s.SeaweedTypes.Create(ctx, seaweedtype.NewSeaweedType("Spinosum", types.NewMoney(250), types.NewMoney(800), start))
	if err != nil {
		return fmt.Errorf("seaweed type: %w", err)
	}
	rope, err := s.CreditTypes.Create(ctx, credittype.NewCreditType("Rope and stakes"))
	if err != nil {
		return fmt.Errorf("credit type: %w", err)
	}
	if _, err := s.ServiceProviders.Create(ctx, serviceprovider.NewServiceProvider("Mwani Cutters", "cutting")); err != nil {
		return fmt.Errorf("service provider: %w", err)
	}

	sites := []struct {
		code, name string
		farmers    [][2]string
	}{
		{"PAJ", "Paje", [][2]string{{"Asha", "Juma"}, {"Mwanaisha", "Ali"}}},
		{"JAM", "Jambiani", [][2]string{{"Fatma", "Haji"}, {"Zuhura", "Omar"}}},
	}

	for _, def := range sites {
		st, err := s.Sites.Create(ctx, site.NewSite(def.code, def.name))
		if err != nil {
			return fmt.Errorf("site %s: %w", def.name, err)
		}
		if _, err := s.Employees.Create(ctx, employee.NewEmployee("Site", "Supervisor "+def.code, st.ID, types.NewMoney(350000))); err != nil {
			return fmt.Errorf("employee: %w", err)
		}

		for i, name := range def.farmers {
			f, err := s.Farmers.Create(ctx, farmer.NewFarmer(name[0], name[1], st.ID))
			if err != nil {
				return fmt.Errorf("farmer: %w", err)
			}
			m, err := s.Modules.Create(ctx, modules.CreateInput{SiteID: st.ID, Code: fmt.Sprintf("%s-%02d", def.code, i+1), Lines: 20})
			if err != nil {
				return fmt.Errorf("module: %w", err)
			}

			typeID := cottonii.ID
			if i%2 == 1 {
				typeID = spinosum.ID
			}
			cycle, err := s.Cultivation.Plant(ctx, cultivation.PlantInput{
				ModuleID:        m.ID,
				SeaweedTypeID:   typeID,
				PlantingDate:    types.MustDate("2024-02-01"),
				InitialWeightKg: types.Kg(40),
			}, f.ID)
			if err != nil {
				return fmt.Errorf("plant: %w", err)
			}

			if i == 0 {
				if _, err := s.Cultivation.Harvest(ctx, cycle.ID, cultivation.HarvestInput{
					Date:     types.MustDate("2024-03-20"),
					WeightKg: types.Kg(310),
				}); err != nil {
					return fmt.Errorf("harvest: %w", err)
				}
			}

			if _, err := s.Credits.AddCredit(ctx, credit.Credit{
				Date:         types.MustDate("2024-02-01"),
				SiteID:       st.ID,
				FarmerID:     f.ID,
				CreditTypeID: rope.ID,
				TotalAmount:  types.NewMoney(15000),
			}); err != nil {
				return fmt.Errorf("credit: %w", err)
			}
		}
		log.Infow("site seeded", "site", def.name, "farmers", len(def.farmers))
	}
	return nil
}
