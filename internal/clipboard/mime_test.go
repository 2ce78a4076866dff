package clipboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testUTF8String    = 100
	testMimeUTF8Plain = 101
	testMimeURIList   = 102
	testOther         = 999
)

func TestFixedAtomToMimeTranslatesBothTextEntries(t *testing.T) {
	mime, ok := fixedAtomToMime(testUTF8String, testUTF8String, testMimeUTF8Plain, testMimeURIList)
	require.True(t, ok)
	require.Equal(t, MimeUTF8PlainText, mime)

	mime, ok = fixedAtomToMime(testMimeUTF8Plain, testUTF8String, testMimeUTF8Plain, testMimeURIList)
	require.True(t, ok)
	require.Equal(t, MimeUTF8PlainText, mime)
}

func TestFixedAtomToMimeTranslatesURIList(t *testing.T) {
	mime, ok := fixedAtomToMime(testMimeURIList, testUTF8String, testMimeUTF8Plain, testMimeURIList)
	require.True(t, ok)
	require.Equal(t, MimeURIList, mime)
}

func TestFixedAtomToMimeUnknownAtomFallsThrough(t *testing.T) {
	_, ok := fixedAtomToMime(testOther, testUTF8String, testMimeUTF8Plain, testMimeURIList)
	require.False(t, ok)
}

func TestFixedMimeToAtomPrefersUTF8StringOverLiteralName(t *testing.T) {
	atom, ok := fixedMimeToAtom(MimeUTF8PlainText, testUTF8String, testMimeURIList)
	require.True(t, ok)
	require.Equal(t, uint32(testUTF8String), atom)
}

func TestFixedMimeToAtomURIList(t *testing.T) {
	atom, ok := fixedMimeToAtom(MimeURIList, testUTF8String, testMimeURIList)
	require.True(t, ok)
	require.Equal(t, uint32(testMimeURIList), atom)
}

func TestFixedMimeToAtomUnknownMimeFallsThrough(t *testing.T) {
	_, ok := fixedMimeToAtom("application/x-made-up", testUTF8String, testMimeURIList)
	require.False(t, ok)
}

func TestContainsString(t *testing.T) {
	require.True(t, containsString([]string{"a", "b"}, "b"))
	require.False(t, containsString([]string{"a", "b"}, "c"))
	require.False(t, containsString(nil, "a"))
}

func TestDedupeNonEmptyDropsBlanksAndDuplicates(t *testing.T) {
	in := []string{"a", "", "b", "a", "", "c"}
	require.Equal(t, []string{"a", "b", "c"}, dedupeNonEmpty(in))
}

func TestDedupeNonEmptyEmptyInput(t *testing.T) {
	require.Equal(t, []string{}, dedupeNonEmpty(nil))
}
