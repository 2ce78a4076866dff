// Package clipboard implements spec.md §4.6's clipboard and
// drag-and-drop bridge: it mirrors CLIPBOARD/PRIMARY ownership between
// Xwayland clients and the host compositor's wl_data_device/
// zwp_primary_selection protocols, and terminates XDND on the X side
// in favor of the host's own drag-and-drop.
package clipboard

// MimeUTF8PlainText and MimeURIList are the two MIME types spec.md
// §4.6 names explicitly in the fixed translation table; every other
// MIME type/atom name passes through unchanged in both directions.
const (
	MimeUTF8PlainText = "text/plain;charset=utf-8"
	MimeURIList       = "text/uri-list"
)

// fixedAtomToMime resolves atom against the translation table's fixed
// entries. ok is false for anything outside the table, meaning the
// caller should fall back to resolving the atom's own name.
func fixedAtomToMime(atom, utf8StringAtom, mimeUTF8PlainAtom, mimeURIListAtom uint32) (string, bool) {
	switch atom {
	case utf8StringAtom, mimeUTF8PlainAtom:
		return MimeUTF8PlainText, true
	case mimeURIListAtom:
		return MimeURIList, true
	default:
		return "", false
	}
}

// fixedMimeToAtom is fixedAtomToMime's inverse for the same two fixed
// entries; UTF8_STRING is preferred over the literal "text/plain;..."
// atom name as the X side of text/plain;charset=utf-8, since that's
// the atom ICCCM clients actually populate CLIPBOARD/PRIMARY with.
func fixedMimeToAtom(mime string, utf8StringAtom, mimeURIListAtom uint32) (uint32, bool) {
	switch mime {
	case MimeUTF8PlainText:
		return utf8StringAtom, true
	case MimeURIList:
		return mimeURIListAtom, true
	default:
		return 0, false
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dedupeNonEmpty(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
