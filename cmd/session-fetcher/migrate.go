package main

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"sessionwatch/internal/repository/dynamo"
	"sessionwatch/internal/repository/postgres"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the record table for the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := cfg.Logger()

			switch cfg.Store.Driver {
			case "dynamodb":
				awsCfg, err := loadAWSConfig(ctx, cfg.Store.AWSRegion)
				if err != nil {
					return err
				}
				if err := dynamo.CreateTable(ctx, dynamodb.NewFromConfig(awsCfg), cfg.Store.DynamoDBTable); err != nil {
					return err
				}
				logger.Info("dynamodb table ready", "table", cfg.Store.DynamoDBTable)
			default:
				db, err := postgres.Open(ctx, cfg.Store.DBUrl)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := postgres.Migrate(ctx, db); err != nil {
					return err
				}
				logger.Info("postgres schema ready")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
