package main

import (
	"github.com/spf13/cobra"

	"github.com/bastiangx/lzwseg/pkg/config"
	"github.com/bastiangx/lzwseg/pkg/server"
)

func newServeCmd(a *app) *cobra.Command {
	var sf segmentFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve segmentations as MessagePack over stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *a.cfg
			sf.override(cmd.Flags(), &cfg.Apply)
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			model, err := a.loadVocab(sf.vocab)
			if err != nil {
				return err
			}
			seg, src, err := newSegmenter(model, &cfg, 0)
			if err != nil {
				return err
			}
			limits := server.Options{
				MaxTextLength: cfg.Server.MaxTextLength,
				MaxTopK:       cfg.Server.MaxTopK,
				Normalize:     cfg.Apply.Normalize,
			}
			return server.NewServer(seg, src, limits, cmd.InOrStdin(), cmd.OutOrStdout()).Start()
		},
	}
	registerSegmentFlags(cmd.Flags(), &sf, config.DefaultConfig().Apply)

	return cmd
}
