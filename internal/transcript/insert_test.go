package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertTimestamp_ReplacesLinePrefix(t *testing.T) {
	text := "00:00 HELLO\n00:04 WORLD\nclip length 02:10"
	// Cursor in the middle of the second line.
	got := InsertTimestamp(text, 15, 0, 65)
	assert.Equal(t, "00:00 HELLO\n01:05 WORLD\nclip length 02:10", got)
}

func TestInsertTimestamp_ReplacePrefixKeepsRestOfLine(t *testing.T) {
	text := "00:09 some long extracted text"
	got := InsertTimestamp(text, 10, 0, 42)
	assert.Equal(t, "00:42 some long extracted text", got)
}

func TestInsertTimestamp_PrefixWidthMayDiffer(t *testing.T) {
	// 6000s renders as "100:00", one byte wider than the prefix it replaces.
	got := InsertTimestamp("00:04 WORLD", 3, 0, 6000)
	assert.Equal(t, "100:00 WORLD", got)

	// And back down: a wide prefix replaced by a narrow token.
	got = InsertTimestamp("100:00 WORLD", 3, 0, 65)
	assert.Equal(t, "01:05 WORLD", got)
}

func TestInsertTimestamp_InsertsAtCursor(t *testing.T) {
	text := "notes about the clip"
	got := InsertTimestamp(text, 6, 0, 5)
	assert.Equal(t, "notes 00:05 about the clip", got)
}

func TestInsertTimestamp_ReplacesSelection(t *testing.T) {
	text := "notes XXXX about the clip"
	got := InsertTimestamp(text, 6, 4, 5)
	assert.Equal(t, "notes 00:05  about the clip", got)
}

func TestInsertTimestamp_OtherLinesUntouched(t *testing.T) {
	text := "first line\nsecond line\nthird line"
	got := InsertTimestamp(text, 11, 0, 0)
	assert.Equal(t, "first line\n00:00 second line\nthird line", got)
}

func TestInsertTimestamp_CursorClamped(t *testing.T) {
	got := InsertTimestamp("abc", 99, 0, 3)
	assert.Equal(t, "abc00:03 ", got)

	got = InsertTimestamp("abc", -5, 0, 3)
	assert.Equal(t, "00:03 abc", got)
}

func TestInsertTimestamp_EmptyText(t *testing.T) {
	got := InsertTimestamp("", 0, 0, 7)
	assert.Equal(t, "00:07 ", got)
}
