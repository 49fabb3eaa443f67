package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"s\n":   true,
		"n\n":   false,
		"\n":    false,
		"":      false,
		"maybe": false,
	}
	for input, want := range cases {
		var out bytes.Buffer
		got, err := confirm(strings.NewReader(input), &out, "Clear? ")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "Clear? ", out.String())
	}
}
