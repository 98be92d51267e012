package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bastiangx/lzwseg/pkg/config"
	"github.com/bastiangx/lzwseg/pkg/segment"
)

func newApplyCmd(a *app) *cobra.Command {
	var (
		sf            segmentFlags
		input, output string
		workers       int
		shardSize     int
		encoding      string
		normalize     bool
	)
	defaults := config.DefaultConfig().Apply

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Segment text into subwords of a vocabulary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *a.cfg
			fs := cmd.Flags()
			sf.override(fs, &cfg.Apply)
			if fs.Changed("workers") {
				cfg.Apply.Workers = workers
			}
			if fs.Changed("shard-size") {
				cfg.Apply.ShardSize = shardSize
			}
			if fs.Changed("encoding") {
				cfg.Apply.Encoding = encoding
			}
			if fs.Changed("normalize") {
				cfg.Apply.Normalize = normalize
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			model, err := a.loadVocab(sf.vocab)
			if err != nil {
				return err
			}
			in, err := openInput(cmd, input)
			if err != nil {
				return err
			}
			defer in.Close()
			out, err := createOutput(cmd, output)
			if err != nil {
				return err
			}

			factory := func(shard int) *segment.Segmenter {
				seg, _, err := newSegmenter(model, &cfg, shard)
				if err != nil {
					log.Errorf("Creating segmenter for shard %d: %v", shard, err)
					return nil
				}
				return seg
			}
			if err := cfg.Driver().Run(cmd.Context(), in, out, factory); err != nil {
				out.Close()
				return err
			}
			return out.Close()
		},
	}

	fs := cmd.Flags()
	registerSegmentFlags(fs, &sf, defaults)
	fs.StringVarP(&input, "input", "i", "", "Text to segment (default stdin)")
	fs.StringVarP(&output, "output", "o", "", "Segmented output (default stdout)")
	fs.IntVar(&workers, "workers", defaults.Workers, "Shards segmented in parallel")
	fs.IntVar(&shardSize, "shard-size", defaults.ShardSize, "Lines per shard")
	fs.StringVar(&encoding, "encoding", defaults.Encoding, "Text encoding of input and output (utf-8, latin1, ...)")
	fs.BoolVar(&normalize, "normalize", defaults.Normalize, "Apply Unicode NFC normalization")

	return cmd
}
