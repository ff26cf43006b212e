// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"absent", []string{"lint", "--strict"}, false},
		{"separate value", []string{"lint", "--cache-path", "/tmp"}, true},
		{"equals form", []string{"--cache-path=/tmp", "lint"}, true},
		{"prefix only", []string{"--cache-paths"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasFlag(tt.args, CachePathFlag))
		})
	}
}

func TestExtractOption(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantValues []string
		wantRest   []string
	}{
		{
			name:     "none",
			args:     []string{"lint", "--strict"},
			wantRest: []string{"lint", "--strict"},
		},
		{
			name:       "leading",
			args:       []string{"--target", "Foo", "lint"},
			wantValues: []string{"Foo"},
			wantRest:   []string{"lint"},
		},
		{
			name:       "trailing",
			args:       []string{"lint", "--target", "Foo"},
			wantValues: []string{"Foo"},
			wantRest:   []string{"lint"},
		},
		{
			name:       "repeated and mixed forms",
			args:       []string{"--target=A", "lint", "--target", "B", "--quiet"},
			wantValues: []string{"A", "B"},
			wantRest:   []string{"lint", "--quiet"},
		},
		{
			name:       "value that looks like a flag",
			args:       []string{"--target", "--quiet", "lint"},
			wantValues: []string{"--quiet"},
			wantRest:   []string{"lint"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, rest, err := ExtractOption(tt.args, TargetFlag)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValues, values)
			assert.Equal(t, tt.wantRest, rest)
			assert.NotContains(t, rest, TargetFlag)
		})
	}
}

func TestExtractOption_MissingValue(t *testing.T) {
	_, _, err := ExtractOption([]string{"lint", "--target"}, TargetFlag)
	assert.ErrorIs(t, err, ErrMissingOptionValue)
}

func TestExtractOption_DoesNotModifyInput(t *testing.T) {
	args := []string{"--target", "Foo", "lint"}
	_, rest, err := ExtractOption(args, TargetFlag)
	require.NoError(t, err)

	rest[0] = "changed"
	assert.Equal(t, []string{"--target", "Foo", "lint"}, args)
}

func TestBuildToolArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "lint gets cache path",
			args: []string{"lint"},
			want: []string{"lint", "--cache-path", "/work", "/pkg/Sources/Foo"},
		},
		{
			name: "analyze omits cache path",
			args: []string{"analyze", "--compiler-log-path", "log"},
			want: []string{"analyze", "--compiler-log-path", "log", "/pkg/Sources/Foo"},
		},
		{
			name: "no arguments",
			args: nil,
			want: []string{"--cache-path", "/work", "/pkg/Sources/Foo"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildToolArguments(tt.args, "/work", "/pkg/Sources/Foo")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "/pkg/Sources/Foo", got[len(got)-1])
		})
	}
}

func TestBuildToolArguments_DoesNotAliasInput(t *testing.T) {
	args := make([]string, 1, 10)
	args[0] = "lint"

	first := BuildToolArguments(args, "/work", "/a")
	second := BuildToolArguments(args, "/work", "/b")

	assert.Equal(t, "/a", first[len(first)-1])
	assert.Equal(t, "/b", second[len(second)-1])
	assert.Len(t, args, 1)
}

func TestUniqueStrings(t *testing.T) {
	assert.Equal(t, []string{"B", "A"}, uniqueStrings([]string{"B", "A", "B", "A"}))
	assert.Empty(t, uniqueStrings(nil))
}
