package main

import (
	"fmt"
	"os"

	"speed-api/config"
	"speed-api/models"
	"speed-api/repositories"
	"speed-api/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var seedFile string

var seedConfigCmd = &cobra.Command{
	Use:   "seed-config",
	Short: "Load the practice taxonomy and site settings from a YAML file",
	Long: `seed-config reads a YAML document with the same sections as
PUT /api/admin/config (practices, defaultColumns, notifications) and upserts
it into the site configuration. Sections missing from the file are left as they are.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := readSeedFile(seedFile)
		if err != nil {
			return err
		}

		db, err := config.InitDB(appConfig.Database, log)
		if err != nil {
			return err
		}
		if err := config.Migrate(db); err != nil {
			return err
		}

		service := services.NewSiteConfigService(repositories.NewSiteConfigRepository(db), log)
		cfg, created, err := service.Upsert(cmd.Context(), req)
		if err != nil {
			return err
		}

		log.Info("Site configuration seeded",
			zap.String("file", seedFile),
			zap.Bool("created", created),
			zap.Int("practices", len(cfg.Practices)))
		return nil
	},
}

func readSeedFile(path string) (models.UpsertSiteConfigRequest, error) {
	var req models.UpsertSiteConfigRequest

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read seed file: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return req, nil
}

func init() {
	seedConfigCmd.Flags().StringVarP(&seedFile, "file", "f", "taxonomy.yaml", "YAML file with practices, defaultColumns and notifications")
}
