package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bastiangx/lzwseg/internal/utils"
	"github.com/bastiangx/lzwseg/pkg/vocab"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	dimStyle = lipgloss.NewStyle().Faint(true)
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		path    string
		top     int
		convert string
		formats bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print vocabulary tables or convert a vocabulary file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if formats {
				return printFormats(cmd.OutOrStdout())
			}
			model, err := a.loadVocab(path)
			if err != nil {
				return err
			}
			if convert != "" {
				if err := vocab.Save(model, convert); err != nil {
					return fmt.Errorf("convert vocabulary: %w", err)
				}
				info, _ := vocab.GetFormatInfo(vocab.FormatFromPath(convert))
				log.Infof("Wrote %s as %s", convert, info.Description)
				return nil
			}
			return printModel(cmd.OutOrStdout(), model, top)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&path, "vocab", "v", "", "Vocabulary file")
	fs.IntVar(&top, "top", 10, "Entries to show per table (0 shows counts only)")
	fs.StringVar(&convert, "convert", "", "Write the vocabulary to this path instead; the extension picks the format")
	fs.BoolVar(&formats, "formats", false, "List the supported vocabulary file formats")

	return cmd
}

func printFormats(w io.Writer) error {
	for _, info := range vocab.ListSupportedFormats() {
		if _, err := fmt.Fprintf(w, "%-24s %s\n", info.Description, strings.Join(info.Extensions, " ")); err != nil {
			return err
		}
	}
	return nil
}

func printModel(w io.Writer, m *vocab.Model, top int) error {
	if _, err := fmt.Fprintf(w, "%s max_len=%d multi-character=%s\n",
		headerStyle.Render("vocabulary"), m.MaxLen, utils.FormatWithCommas(m.MultiCharCount())); err != nil {
		return err
	}
	for n := 1; n <= m.MaxLen; n++ {
		if err := printTable(w, fmt.Sprintf("length %d", n), m.Length(n), top); err != nil {
			return err
		}
	}
	for p := vocab.PositionStart; p <= vocab.PositionEnd; p++ {
		if err := printTable(w, "position "+p.String(), m.Position(p), top); err != nil {
			return err
		}
	}
	return nil
}

func printTable(w io.Writer, name string, t *vocab.Table, top int) error {
	if _, err := fmt.Fprintf(w, "\n%s %s\n", headerStyle.Render(name), dimStyle.Render(utils.FormatWithCommas(t.Len())+" entries")); err != nil {
		return err
	}
	entries := t.Entries()
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
	for i, e := range entries {
		if i >= top {
			break
		}
		if _, err := fmt.Fprintf(w, "%6d  %-20s %s\n", e.Rank, e.Subword, utils.FormatWithCommas(e.Count)); err != nil {
			return err
		}
	}
	return nil
}
