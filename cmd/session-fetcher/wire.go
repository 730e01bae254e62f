package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"sessionwatch/config"
	"sessionwatch/internal/adapters/email"
	"sessionwatch/internal/adapters/portal"
	"sessionwatch/internal/domain"
	"sessionwatch/internal/repository/dynamo"
	"sessionwatch/internal/repository/postgres"
	"sessionwatch/internal/services"
)

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return awsCfg, nil
}

// openStore returns the configured record store and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config) (domain.RecordStore, func(), error) {
	switch cfg.Store.Driver {
	case "dynamodb":
		awsCfg, err := loadAWSConfig(ctx, cfg.Store.AWSRegion)
		if err != nil {
			return nil, nil, err
		}
		return dynamo.NewRecordRepository(dynamodb.NewFromConfig(awsCfg), cfg.Store.DynamoDBTable), func() {}, nil
	default:
		db, err := postgres.Open(ctx, cfg.Store.DBUrl)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewRecordRepository(db), func() { db.Close() }, nil
	}
}

func newSource(cfg *config.Config) (domain.SessionSource, error) {
	switch {
	case cfg.Source.File != "":
		return portal.NewFileSource(cfg.Source.File), nil
	case cfg.Source.URL != "":
		return portal.NewHTTPSource(&http.Client{Timeout: time.Minute}, cfg.Source.URL, cfg.Source.Cookie), nil
	default:
		return nil, errors.New("no session source configured: set SOURCE_URL or SOURCE_FILE")
	}
}

// newNotifier always logs events. It also records them in the mutation history
// and emails them when configured.
func newNotifier(ctx context.Context, cfg *config.Config, store domain.RecordStore, logger *slog.Logger) (domain.Notifier, error) {
	notifiers := []domain.Notifier{services.NewLogNotifier(logger)}
	if cfg.Sync.RecordMutations {
		notifiers = append(notifiers, services.NewMutationRecorder(store))
	}
	if len(cfg.Mailer.Recipients) > 0 {
		mailer, err := email.NewMailer(ctx, email.MailerConfig{
			Provider:    cfg.Mailer.Provider,
			FromAddress: cfg.Mailer.FromAddress,
			FromName:    cfg.Mailer.FromName,
			SES: email.SESConfig{
				Region:             cfg.Mailer.SESRegion,
				AccessKeyID:        cfg.Mailer.SESAccessKeyID,
				SecretAccessKey:    cfg.Mailer.SESSecretAccessKey,
				InsecureSkipVerify: cfg.Mailer.SESInsecureSkipTLS,
			},
		}, logger)
		if err != nil {
			return nil, err
		}
		renderer, err := email.NewTemplateRenderer()
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, services.NewEmailNotifier(mailer, renderer, cfg.Mailer.Recipients, logger))
	}
	return services.NewMultiNotifier(notifiers...), nil
}
