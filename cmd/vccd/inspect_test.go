package main

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/vccd/internal/captionstore"
	"github.com/samcharles93/vccd/internal/compiler"
	"github.com/samcharles93/vccd/pkg/vccd"
)

func TestBuildReport(t *testing.T) {
	f, _, err := vccd.Build(map[string]string{
		"a": "Alpha",
		"b": "Bravo",
		"c": "Charlie",
	}, vccd.EncodeOptions{})
	require.NoError(t, err)
	data, err := f.MarshalBinary()
	require.NoError(t, err)

	s, err := captionstore.FromBytes(data)
	require.NoError(t, err)

	r := buildReport("mem.dat", s, 2, true)
	require.Equal(t, len(data), r.Size)
	require.Equal(t, compiler.Digest(data), r.Digest)
	require.EqualValues(t, 1, r.BlockCount)
	require.EqualValues(t, 3, r.DirectoryCount)
	require.EqualValues(t, 512, r.FirstBlockOffset)
	require.Len(t, r.Entries, 2)
	for _, e := range r.Entries {
		require.NotEmpty(t, e.Text)
		require.Len(t, e.Hash, 8)
	}

	out, err := json.Marshal(r)
	require.NoError(t, err)
	var back inspectReport
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, r.BlockUsage, back.BlockUsage)
}
