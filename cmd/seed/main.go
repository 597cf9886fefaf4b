package main

import (
	"context"
	"fmt"
	"time"

	"github.com/MrKriegler/go-claims/internal/core"
	"github.com/MrKriegler/go-claims/internal/platform/config"
	"github.com/MrKriegler/go-claims/internal/platform/ids"
	"github.com/MrKriegler/go-claims/internal/platform/logging"
	"github.com/MrKriegler/go-claims/internal/store/mongo"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Env)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Connect to Mongo
	client, err := mongo.NewClient(cfg)
	if err != nil {
		log.Error("failed to connect to MongoDB", "err", err)
		return
	}
	defer client.Close(ctx)

	if err := mongo.EnsureIndexes(ctx, client.DB); err != nil {
		log.Error("failed to ensure indexes", "err", err)
		return
	}

	claimRepo := mongo.NewClaimRepo(client.DB, 5*time.Second)

	log.Info("seeding claims")

	seedClaims(ctx, claimRepo)

	log.Info("done seeding")
}

func seedClaims(ctx context.Context, repo *mongo.ClaimRepoMongo) {
	now := time.Now().UTC()

	claims := []core.Claim{
		{
			UserID:       "user-alice",
			PolicyNumber: "POL10000001",
			ClaimType:    core.ClaimTypeHealth,
			Amount:       12500,
			IncidentDate: now.AddDate(0, 0, -10),
			Description:  "Outpatient physiotherapy after minor knee injury",
			Documents:    []string{"s3://claims-docs/alice/physio-invoice.pdf"},
		},
		{
			UserID:       "user-alice",
			PolicyNumber: "POL10000001",
			ClaimType:    core.ClaimTypeVehicle,
			Amount:       340000,
			IncidentDate: now.AddDate(0, 0, -3),
			Description:  "Rear-end collision, bumper and tailgate replacement",
			Documents: []string{
				"s3://claims-docs/alice/repair-quote.pdf",
				"s3://claims-docs/alice/police-report.pdf",
			},
		},
		{
			UserID:       "user-bob",
			PolicyNumber: "POL20000002",
			ClaimType:    core.ClaimTypeHome,
			Amount:       78000,
			IncidentDate: now.AddDate(0, -1, 0),
			Description:  "Water damage to kitchen ceiling from burst pipe",
			Documents:    []string{"s3://claims-docs/bob/plumber-invoice.pdf"},
		},
		{
			UserID:       "user-carol",
			PolicyNumber: "PN-BAD-FORMAT",
			ClaimType:    core.ClaimTypeTravel,
			Amount:       4500,
			IncidentDate: now.AddDate(0, 0, -400),
			Description:  "Delayed baggage on connecting flight",
			Documents:    nil,
		},
	}

	for _, c := range claims {
		c.ID = ids.New()
		c.Status = core.ClaimStatusPending
		c.Scored = false
		c.CreatedAt = now
		c.UpdatedAt = now

		if err := repo.Create(ctx, c); err != nil {
			fmt.Printf("failed to seed claim for %s: %v\n", c.UserID, err)
		} else {
			fmt.Printf("seeded: %s %s %s\n", c.ID, c.UserID, c.ClaimType)
		}
	}
}
