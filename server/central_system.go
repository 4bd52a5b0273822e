package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"pmsync/analysis"
	"pmsync/cloud"
	"pmsync/ingest"
	"pmsync/internal"
	"pmsync/internal/config"
	"pmsync/jobs"
	"pmsync/metrics"
	"pmsync/pm"
	"pmsync/portfolio"
	"pmsync/telegram"
	"pmsync/utility"
)

// CentralSystem wires the services behind the HTTP server.
type CentralSystem struct {
	conf      *config.Config
	server    *Server
	logger    *internal.Logger
	database  *internal.MongoDB
	registry  *jobs.Registry
	portfolio *portfolio.Service
}

func NewCentralSystem(conf *config.Config) (*CentralSystem, error) {
	cs := &CentralSystem{conf: conf}

	log.Println("set time zone to " + conf.TimeZone)
	location, err := time.LoadLocation(conf.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone initialization failed: %w", err)
	}

	if !conf.Mongo.Enabled {
		return nil, utility.Err("mongodb must be enabled to store buildings and utilities")
	}
	database, err := internal.NewMongoClient(conf)
	if err != nil {
		return nil, fmt.Errorf("mongodb setup failed: %w", err)
	}
	log.Println("mongodb is configured and enabled")
	cs.database = database

	logService := internal.NewLogger(location)
	logService.SetDebugMode(conf.Debug())
	logService.SetDatabase(database)
	cs.logger = logService

	client := pm.NewClient(conf, logService)
	portfolioService := portfolio.NewService(client, database)
	portfolioService.SetLogger(logService)
	if conf.Analysis.Enabled {
		analyzer := analysis.New(conf.Analysis.URL, conf.Analysis.Token)
		analyzer.SetLogger(logService)
		portfolioService.SetAnalyzer(analyzer)
		log.Println("analysis service is configured and enabled")
	}
	cs.portfolio = portfolioService

	uploads := ingest.NewService(database)
	uploads.SetLogger(logService)
	if conf.S3.Enabled {
		archive, err := cloud.NewArchive(context.Background(), conf.S3.Region, conf.S3.Bucket, conf.S3.Prefix)
		if err != nil {
			return nil, fmt.Errorf("s3 archive setup failed: %w", err)
		}
		uploads.SetArchive(archive)
		log.Println("upload archive is configured and enabled")
	}

	registry := jobs.NewRegistry()
	registry.SetStore(database)
	registry.SetLogger(logService)
	if saved, err := database.GetSyncJobs(); err != nil {
		logService.Warn(fmt.Sprintf("loading sync jobs: %v", err))
	} else {
		registry.Load(saved)
	}
	cs.registry = registry

	feed := NewJobFeed()
	feed.SetLogger(logService)
	registry.AddListener(feed)

	if conf.SNS.Enabled {
		alerts, err := cloud.NewAlerts(context.Background(), conf.SNS.Region, conf.SNS.TopicArn)
		if err != nil {
			return nil, fmt.Errorf("sns alerts setup failed: %w", err)
		}
		alerts.SetLogger(logService)
		registry.AddListener(alerts)
		log.Println("sns alerts are configured and enabled")
	}

	if conf.Telegram.Enabled {
		telegramBot, err := telegram.NewBot(conf.Telegram.ApiKey)
		if err != nil {
			return nil, fmt.Errorf("telegram bot setup failed: %w", err)
		}
		telegramBot.SetJobSource(registry)
		telegramBot.SetLogger(logService)
		telegramBot.Subscribe(conf.Telegram.ChatIDs...)
		telegramBot.Start()
		registry.AddListener(telegramBot)
		log.Println("telegram bot is configured and enabled")
	}

	api := NewApi(uploads, portfolioService, database, registry, conf.Upload.MaxBytes)
	api.SetLogger(logService)
	api.SetLogReader(database)
	cs.server = NewServer(conf, api, feed)
	cs.server.SetLogger(logService)

	return cs, nil
}

// Portfolio exposes the reconciliation service to the command line.
func (cs *CentralSystem) Portfolio() *portfolio.Service {
	return cs.portfolio
}

func (cs *CentralSystem) Registry() *jobs.Registry {
	return cs.registry
}

// Start serves until the HTTP server stops.
func (cs *CentralSystem) Start() error {
	go func() {
		if err := metrics.Listen(cs.conf); err != nil {
			cs.logger.Error("metrics server failed", err)
		}
	}()
	return cs.server.Start()
}

func (cs *CentralSystem) Close() {
	cs.registry.Wait()
	cs.database.Close()
}
