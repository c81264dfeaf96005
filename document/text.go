package document

import "strings"

// ResolveText turns one of the InnerTube text encodings into plain text.
//
// Accepted shapes, tried in order: a bare string, {simpleText}, {runs:[{text}]}
// (joined without separator) and {text}. The boolean is false when none of
// them applies, which lets callers move on to the next candidate field; an
// empty but well-formed value resolves to "" with true.
func ResolveText(n Node) (string, bool) {
	if s, ok := String(n); ok {
		return s, true
	}

	m, ok := n.(*Mapping)
	if !ok || m == nil {
		return "", false
	}

	if v, ok := m.Get("simpleText"); ok {
		if s, ok := String(v); ok {
			return s, true
		}
	}

	if v, ok := m.Get("runs"); ok {
		if runs, ok := v.(Sequence); ok {
			var b strings.Builder
			for _, run := range runs {
				if text, ok := DigString(run, "text"); ok {
					b.WriteString(text)
				}
			}
			return b.String(), true
		}
	}

	if v, ok := m.Get("text"); ok {
		if s, ok := String(v); ok {
			return s, true
		}
	}

	return "", false
}

// ResolveField resolves the text stored under key in m.
func ResolveField(m *Mapping, key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return ResolveText(v)
}
