package preprocess

import "strings"

// Attr is one attribute of an element descriptor.
type Attr struct {
	Name  string
	Value string
}

// Element describes an interactive element for pagination discovery.
type Element struct {
	Tag   string
	Attrs []Attr
	Text  string
}

// Href returns the element's href attribute, if any.
func (e Element) Href() string {
	for _, a := range e.Attrs {
		if a.Name == "href" {
			return a.Value
		}
	}
	return ""
}

// String renders e as a single-line tag, e.g. <a href="/p/2" class="next">Next</a>.
func (e Element) String() string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(e.Tag)
	for _, a := range e.Attrs {
		sb.WriteString(" ")
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		sb.WriteString(strings.ReplaceAll(a.Value, `"`, "&quot;"))
		sb.WriteString(`"`)
	}
	sb.WriteString(">")
	sb.WriteString(e.Text)
	sb.WriteString("</")
	sb.WriteString(e.Tag)
	sb.WriteString(">")
	return sb.String()
}

// Render joins element descriptors one per line.
func Render(elements []Element) string {
	lines := make([]string, len(elements))
	for i, e := range elements {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}
