package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/persiandate"
	"github.com/spf13/cobra"
	"gorm.io/datatypes"
)

var seedNames = []string{
	"Ali", "Mohammad", "Reza", "Hassan", "Hossein", "Mehdi", "Ahmad", "Amir",
	"Hamid", "Saeed", "Maryam", "Fatima", "Zahra", "Sara", "Narges", "Leila",
	"Mahsa", "Shirin", "Nasrin", "Parisa",
}

func newSeedCmd() *cobra.Command {
	var userID int64
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create fake birthday records for load and UI testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("count must be positive, got %d", count)
			}

			if _, err := db.GetOrCreateUserSettings(userID, "Test User"); err != nil {
				return err
			}

			created := 0
			attempts := 0
			// Random names collide with the unique name+date+owner
			// constraint now and then; a bounded retry absorbs that.
			maxAttempts := count * 2
			for created < count && attempts < maxAttempts {
				attempts++
				date := randomBirthDate()
				record := db.Birthday{
					Name:             fmt.Sprintf("%s %s", seedNames[rand.Intn(len(seedNames))], seedNames[rand.Intn(len(seedNames))]),
					BirthDate:        datatypes.Date(date),
					PersianBirthDate: persiandate.ToPersian(date),
					AddedBy:          userID,
				}
				if err := db.DB.Create(&record).Error; err != nil {
					continue
				}
				created++
			}

			fmt.Printf("Created %d test birthdays for user %d\n", created, userID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "telegram user id to own the records")
	cmd.Flags().IntVar(&count, "count", 10, "number of records to create")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func randomBirthDate() time.Time {
	start := time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2010, time.December, 31, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)
	return start.AddDate(0, 0, rand.Intn(days))
}
