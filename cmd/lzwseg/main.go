// Copyright 2025 The lzwseg Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the lzwseg command line.

lzwseg learns an LZW-style subword vocabulary from plain text and uses it to
segment text into subwords, sampling among the best segmentations so the same
word can be split differently on different runs. This is useful as a
subword regularization step before training a tokenizer or a language model.

# Usage

Learn a vocabulary with subwords of up to 6 characters, keeping the 20000
most frequent multi-character subwords:

	lzwseg learn -i corpus.txt -o en.vocab -m 6 -s 20000

Segment text with it, sampling among the 5 best candidates per word:

	lzwseg apply -v en.vocab -i corpus.txt -o corpus.seg -k 5 -a 0.1

Every output line holds the words of the input line. The first subword of each
word is marked with '|':

	the cats sat  ->  |the |ca ts |sat

With -k 1 segmentation is deterministic. Large inputs can be segmented on
several cores with --workers; output order always matches the input.

Inspect a vocabulary or convert it between formats:

	lzwseg inspect -v en.vocab --top 20
	lzwseg inspect -v en.vocab --convert en.txt

Run a MessagePack IPC server over stdin/stdout, or an interactive session:

	lzwseg serve -v en.vocab
	lzwseg cli -v en.vocab -k 3

# Vocabulary Files

Files ending in .vocab, .msgpack or .bin use the binary MessagePack format.
Files ending in .txt use a line based text format with one section per table.
Both hold every count and rank of every table.

# Configuration

Defaults come from a TOML file, created on first use under the user config
directory (~/.config/lzwseg/config.toml) or given with --config:

	[learn]
	max_len = 10
	symbols = 10000
	encoding = "utf-8"

	[apply]
	top_k = 5
	alpha = 0.1
	workers = 1
	encoding = "utf-8"

	[server]
	max_text_length = 4096
	max_top_k = 64

Flags given on the command line win over the file.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const (
	Version = "0.3.0"
	AppName = "lzwseg"
	gh      = "https://github.com/bastiangx/lzwseg"
)

// sigContext is cancelled on the first interrupt. A second one exits at once.
func sigContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx, cancel
}

func main() {
	ctx, cancel := sigContext()
	err := NewRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
