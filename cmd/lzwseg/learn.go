package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bastiangx/lzwseg/internal/utils"
	"github.com/bastiangx/lzwseg/pkg/config"
	"github.com/bastiangx/lzwseg/pkg/pipeline"
	"github.com/bastiangx/lzwseg/pkg/vocab"
)

func newLearnCmd(a *app) *cobra.Command {
	var (
		input, output string
		maxLen        int
		symbols       int
		normalize     bool
		encoding      string
	)
	defaults := config.DefaultConfig().Learn

	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Learn a subword vocabulary from tokenized text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *a.cfg
			fs := cmd.Flags()
			if fs.Changed("max-len") {
				cfg.Learn.MaxLen = maxLen
			}
			if fs.Changed("symbols") {
				cfg.Learn.Symbols = symbols
			}
			if fs.Changed("normalize") {
				cfg.Learn.Normalize = normalize
			}
			if fs.Changed("encoding") {
				cfg.Learn.Encoding = encoding
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			enc, err := pipeline.LookupEncoding(cfg.Learn.Encoding)
			if err != nil {
				return err
			}

			in, err := openInput(cmd, input)
			if err != nil {
				return err
			}
			defer in.Close()

			log.Infof("Learning vocabulary (max_len %d, symbols %d)", cfg.Learn.MaxLen, cfg.Learn.Symbols)
			model, err := vocab.Learn(cmd.Context(), pipeline.DecodeReader(in, enc), cfg.LearnOptions())
			if err != nil {
				return fmt.Errorf("learn: %w", err)
			}

			if err := vocab.Save(model, output); err != nil {
				return fmt.Errorf("save vocabulary: %w", err)
			}
			stats := model.Stats()
			log.Infof("Saved %s: %s single characters, %s multi-character subwords",
				output, utils.FormatWithCommas(stats.Lengths[0]), utils.FormatWithCommas(model.MultiCharCount()))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&input, "input", "i", "", "Training text, one sentence per line (default stdin)")
	fs.StringVarP(&output, "output", "o", "", "Vocabulary file to write; the extension picks the format")
	fs.IntVarP(&maxLen, "max-len", "m", defaults.MaxLen, "Maximum subword length in characters")
	fs.IntVarP(&symbols, "symbols", "s", defaults.Symbols, "Multi-character subwords to keep (0 or less keeps all)")
	fs.BoolVar(&normalize, "normalize", defaults.Normalize, "Apply Unicode NFC normalization")
	fs.StringVar(&encoding, "encoding", defaults.Encoding, "Text encoding of the training text (utf-8, latin1, ...)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
