package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bastiangx/lzwseg/internal/logger"
	"github.com/bastiangx/lzwseg/internal/utils"
	"github.com/bastiangx/lzwseg/pkg/config"
	"github.com/bastiangx/lzwseg/pkg/segment"
	"github.com/bastiangx/lzwseg/pkg/vocab"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	cfgFile  string
	debug    bool
	logLevel string

	cfg     *config.Config
	cfgPath string
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Learn LZW-style subword vocabularies and sample segmentations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&a.cfgFile, "config", "", "Path to a TOML config file")
	fs.BoolVarP(&a.debug, "debug", "d", false, "Toggle debug mode")
	fs.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newLearnCmd(a))
	cmd.AddCommand(newApplyCmd(a))
	cmd.AddCommand(newInspectCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newCliCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup configures logging and loads the config before any input is read.
func (a *app) setup(cmd *cobra.Command) error {
	fallback := log.WarnLevel
	if cmd.Name() == "learn" {
		fallback = log.InfoLevel
	}
	if err := logger.Setup(a.debug, a.logLevel, fallback); err != nil {
		return err
	}

	cfg, path, err := config.LoadConfigWithPriority(a.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.cfgPath = path
	log.Debugf("Using config: %s", config.GetActiveConfigPath(path))
	return nil
}

// loadVocab resolves path against the usual vocabulary locations and loads it.
func (a *app) loadVocab(path string) (*vocab.Model, error) {
	if path == "" {
		return nil, fmt.Errorf("no vocabulary given, use -v")
	}
	configDir := ""
	if a.cfgPath != "" {
		configDir = filepath.Dir(a.cfgPath)
	}
	resolved := utils.ResolveVocabPath(path, utils.VocabSearchDirs(configDir))
	model, err := vocab.Load(resolved)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	stats := model.Stats()
	log.Debugf("Loaded vocabulary %s: max_len %d, tables %v", resolved, stats.MaxLen, stats.Lengths)
	return model, nil
}

// segmentFlags are shared by the commands that segment text.
type segmentFlags struct {
	vocab     string
	topK      int
	alpha     float64
	seed      uint64
	threshold int
}

func registerSegmentFlags(fs *pflag.FlagSet, f *segmentFlags, defaults config.ApplyConfig) {
	fs.StringVarP(&f.vocab, "vocab", "v", "", "Vocabulary file (.vocab, .msgpack, .bin or .txt)")
	fs.IntVarP(&f.topK, "top-k", "k", defaults.TopK, "Number of best segmentations to sample from (1 = deterministic)")
	fs.Float64VarP(&f.alpha, "alpha", "a", defaults.Alpha, "Sampling smoothness; 0 samples the top-k uniformly")
	fs.Uint64Var(&f.seed, "seed", defaults.Seed, "Random seed")
	fs.IntVar(&f.threshold, "long-word", defaults.LongWordThreshold, "Words longer than this are split in half before segmenting")
}

// override copies explicitly set flags into the apply section.
func (f *segmentFlags) override(fs *pflag.FlagSet, apply *config.ApplyConfig) {
	if fs.Changed("top-k") {
		apply.TopK = f.topK
	}
	if fs.Changed("alpha") {
		apply.Alpha = f.alpha
	}
	if fs.Changed("seed") {
		apply.Seed = f.seed
	}
	if fs.Changed("long-word") {
		apply.LongWordThreshold = f.threshold
	}
}

// newSegmenter builds a segmenter for model from the apply section.
// shard offsets the seed so parallel shards draw independent streams.
func newSegmenter(model *vocab.Model, cfg *config.Config, shard int) (*segment.Segmenter, segment.Source, error) {
	src := segment.NewSource(cfg.Apply.Seed + uint64(shard))
	seg, err := segment.New(model, cfg.SegmentOptions(), src, nil)
	if err != nil {
		return nil, nil, err
	}
	return seg, src, nil
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	return utils.OpenInput(path, cmd.InOrStdin())
}

func createOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	return utils.CreateOutput(path, cmd.OutOrStdout())
}
