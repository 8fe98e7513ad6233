package main

import (
	"github.com/EternisAI/netharvest/internal/fetcher"
	"github.com/EternisAI/netharvest/internal/nmcli"
	"github.com/EternisAI/netharvest/internal/notify"
	"github.com/EternisAI/netharvest/internal/pipeline"
	"github.com/EternisAI/netharvest/internal/provisioner"
)

// newPipeline builds the production pipeline from the loaded config.
func newPipeline(cfg Config, executor nmcli.CommandExecutor) *pipeline.Pipeline {
	network := nmcli.NewClient(executor, cfg.Provision.nmcliConfig())

	return pipeline.NewPipeline(cfg.Paths, pipeline.Deps{
		Fetcher:     fetcher.NewFetcher(cfg.Remote, cfg.Paths.Resolve().RawCache),
		Provisioner: provisioner.NewProvisioner(network, cfg.Provision.provisionerConfig()),
		Notifier:    notify.NewNotifier(cfg.Notify),
	})
}
