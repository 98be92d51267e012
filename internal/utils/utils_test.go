package utils

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestFormatWithCommas(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{-98765, "-98,765"},
	}
	for _, tt := range tests {
		if got := FormatWithCommas(tt.n); got != tt.want {
			t.Errorf("FormatWithCommas(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestCreateRankList(t *testing.T) {
	if got := CreateRankList(4); !reflect.DeepEqual(got, []int{1, 2, 3, 4}) {
		t.Errorf("CreateRankList(4) = %v", got)
	}
	if got := CreateRankList(0); len(got) != 0 {
		t.Errorf("CreateRankList(0) = %v, want empty", got)
	}
}

func TestExtractHelpers(t *testing.T) {
	data := map[string]any{
		"count": int64(3),
		"ratio": 0.5,
		"whole": int64(2),
		"flag":  true,
		"name":  "latin1",
	}
	if v, ok := ExtractInt64(data, "count"); !ok || v != 3 {
		t.Errorf("ExtractInt64(count) = %v, %v", v, ok)
	}
	if v, ok := ExtractFloat64(data, "ratio"); !ok || v != 0.5 {
		t.Errorf("ExtractFloat64(ratio) = %v, %v", v, ok)
	}
	if v, ok := ExtractFloat64(data, "whole"); !ok || v != 2 {
		t.Errorf("ExtractFloat64(whole) = %v, %v", v, ok)
	}
	if v, ok := ExtractBool(data, "flag"); !ok || !v {
		t.Errorf("ExtractBool(flag) = %v, %v", v, ok)
	}
	if v, ok := ExtractString(data, "name"); !ok || v != "latin1" {
		t.Errorf("ExtractString(name) = %v, %v", v, ok)
	}
	if _, ok := ExtractString(data, "count"); ok {
		t.Error("ExtractString(count) should fail on an integer")
	}
}

func TestResolveVocabPath(t *testing.T) {
	dir := t.TempDir()
	vocabDir := filepath.Join(dir, "vocab")
	if err := EnsureDir(vocabDir); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	path := filepath.Join(vocabDir, "en.vocab")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}

	tests := []struct {
		name        string
		dirs        []string
		want        string
		description string
	}{
		{"en.vocab", []string{dir, vocabDir}, path, "found in second dir"},
		{"missing.vocab", []string{dir, vocabDir}, "missing.vocab", "missing keeps name"},
		{path, nil, path, "absolute path"},
		{"vocab", []string{dir}, "vocab", "directories are skipped"},
	}
	for _, tt := range tests {
		if got := ResolveVocabPath(tt.name, tt.dirs); got != tt.want {
			t.Errorf("%s: ResolveVocabPath(%q) = %q, want %q", tt.description, tt.name, got, tt.want)
		}
	}
}

func TestCreateOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "seg.txt")
	w, err := CreateOutput(path, nil)
	if err != nil {
		t.Fatalf("CreateOutput() error = %v", err)
	}
	if _, err := w.Write([]byte("|ca ts\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	r, err := OpenInput(path, nil)
	if err != nil {
		t.Fatalf("OpenInput() error = %v", err)
	}
	defer r.Close()
	if !FileExists(path) {
		t.Errorf("FileExists(%q) = false", path)
	}
	if _, err := OpenInput(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Error("OpenInput(missing) should fail")
	}
}

func TestStdio(t *testing.T) {
	var buf bytes.Buffer
	w, err := CreateOutput("-", &buf)
	if err != nil {
		t.Fatalf("CreateOutput(-) error = %v", err)
	}
	if _, err := w.Write([]byte("|cat\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if buf.String() != "|cat\n" {
		t.Errorf("stdout = %q, want %q", buf.String(), "|cat\n")
	}

	r, err := OpenInput("", strings.NewReader("cats\n"))
	if err != nil {
		t.Fatalf("OpenInput(\"\") error = %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil || string(got) != "cats\n" {
		t.Errorf("stdin = %q, %v", got, err)
	}
}
