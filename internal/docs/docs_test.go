// ABOUTME: Tests for document text extraction and chunking
// ABOUTME: Covers markdown flattening, type gating, and window overlap

package docs

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownText(t *testing.T) {
	src := []byte("# Refund Policy\n\nRefunds are issued within **30 days** of [purchase](https://example.com).\n\n" +
		"- keep the *receipt*\n- contact support\n\n```\ncode stays\n```\n\n<div>html dropped</div>\n")

	got, err := MarkdownText(src)
	require.NoError(t, err)

	assert.Contains(t, got, "Refund Policy\n")
	assert.Contains(t, got, "Refunds are issued within 30 days of purchase.")
	assert.Contains(t, got, "keep the receipt")
	assert.Contains(t, got, "contact support")
	assert.Contains(t, got, "code stays")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "https://example.com")
	assert.NotContains(t, got, "html dropped")
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		want     string
		wantErr  error
	}{
		{name: "markdown", filename: "policy.MD", data: "## Hi\n", want: "Hi"},
		{name: "text", filename: "notes.txt", data: "plain *text*", want: "plain *text*"},
		{name: "pdf", filename: "policy.pdf", data: "%PDF-1.4", wantErr: ErrUnsupportedType},
		{name: "no extension", filename: "README", data: "x", wantErr: ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.filename, []byte(tt.data))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_RejectsBinary(t *testing.T) {
	_, err := Extract("blob.txt", []byte{0xff, 0xfe, 0x00})
	assert.Error(t, err)
}

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func TestChunk_Overlap(t *testing.T) {
	chunks := Chunk(words(2000), 800, 200)

	require.Len(t, chunks, 3)
	assert.True(t, strings.HasPrefix(chunks[0], "w0 "))
	assert.True(t, strings.HasPrefix(chunks[1], "w600 "))
	assert.True(t, strings.HasPrefix(chunks[2], "w1200 "))
	assert.True(t, strings.HasSuffix(chunks[2], " w1999"))

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	assert.Len(t, first, 800)
	assert.Equal(t, first[600:], second[:200], "consecutive chunks share the overlap")
}

func TestChunk_ShortText(t *testing.T) {
	assert.Equal(t, []string{"just a few words"}, Chunk("just   a few\nwords", 800, 200))
	assert.Nil(t, Chunk(" \n\t ", 800, 200))
}

func TestChunk_BadParametersFallBack(t *testing.T) {
	chunks := Chunk(words(10), 4, 9)
	require.Len(t, chunks, 3, "overlap >= size is treated as no overlap")
	assert.Equal(t, "w8 w9", chunks[2])

	assert.Len(t, Chunk(words(1000), 0, 0), 2, "zero size uses the default")
}
