package main

import (
	"github.com/spf13/cobra"

	"github.com/bastiangx/lzwseg/internal/cli"
	"github.com/bastiangx/lzwseg/pkg/config"
)

func newCliCmd(a *app) *cobra.Command {
	var sf segmentFlags

	cmd := &cobra.Command{
		Use:   "cli",
		Short: "Segment words interactively and show their candidates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *a.cfg
			sf.override(cmd.Flags(), &cfg.Apply)
			if err := cfg.Validate(); err != nil {
				return err
			}
			model, err := a.loadVocab(sf.vocab)
			if err != nil {
				return err
			}
			seg, _, err := newSegmenter(model, &cfg, 0)
			if err != nil {
				return err
			}
			h := cli.NewInputHandler(seg, cmd.InOrStdin(), cmd.OutOrStdout())
			h.SetNormalize(cfg.Apply.Normalize)
			return h.Start()
		},
	}
	registerSegmentFlags(cmd.Flags(), &sf, config.DefaultConfig().Apply)

	return cmd
}
