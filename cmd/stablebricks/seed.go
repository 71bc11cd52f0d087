package main

import (
	"stablebricks-backend/internal/infrastructure/database"
	"stablebricks-backend/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load projects and an admin account from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := seed.LoadFile(file)
			if err != nil {
				return err
			}
			db, done, err := openDB()
			if err != nil {
				return err
			}
			defer done()
			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			_, err = seed.Apply(cmd.Context(), db, f)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "path to the seed YAML")
	return cmd
}
