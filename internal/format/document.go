package format

// BlockKind distinguishes the block types a Document can hold.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockList
)

// Run is a span of inline text. Text is raw (unescaped); serializers escape
// it before adding markup.
type Run struct {
	Text   string
	Strong bool
	Em     bool
}

// Block is a finished paragraph or list.
type Block struct {
	Kind    BlockKind
	Runs    []Run   // Paragraph content
	Items   [][]Run // List items
	Ordered bool    // First item of the list was numbered
}

// Document is the structured result of formatting assistant text.
// Blocks appear in the same order as in the source text.
type Document struct {
	Blocks []Block
}

// Empty reports whether the document has no blocks.
func (d Document) Empty() bool {
	return len(d.Blocks) == 0
}

// PlainText returns the concatenated text of the runs without markup.
func PlainText(runs []Run) string {
	n := 0
	for _, r := range runs {
		n += len(r.Text)
	}
	b := make([]byte, 0, n)
	for _, r := range runs {
		b = append(b, r.Text...)
	}
	return string(b)
}
