package ticket

// Kind is the type of one document instruction
type Kind int

const (
	KindText  Kind = iota // one printed line
	KindStyle             // bold/size change, applies until the next style
	KindAlign             // alignment change, applies until the next align
	KindFeed              // feed N blank lines
	KindCut               // paper cut
	KindLogo              // branding image, Text carries the alt/business name
)

// Size is the ESC/POS character size selector (GS ! n)
type Size byte

const (
	SizeNormal       Size = 0x00
	SizeDoubleHeight Size = 0x01
	SizeDoubleWidth  Size = 0x10
	SizeDouble       Size = 0x11
)

// Alignment is the ESC/POS justification selector (ESC a n)
type Alignment byte

const (
	AlignLeft   Alignment = 0
	AlignCenter Alignment = 1
	AlignRight  Alignment = 2
)

// Instruction is one typed step of a ticket
type Instruction struct {
	Kind  Kind
	Text  string
	Bold  bool
	Size  Size
	Align Alignment
	Lines int
	Logo  *Logo
}

// Logo is the receipt header image
type Logo struct {
	URL    string
	Raster *Raster // nil means the serializer prints the alt text instead
}

// Raster is a 1-bit image ready for GS v 0. Rows are WidthBytes long, MSB is the leftmost dot.
type Raster struct {
	WidthBytes int
	Height     int
	Data       []byte
}

// Document is an ordered list of instructions rendered by the serializers in this package.
// An empty document means "nothing to print".
type Document struct {
	Title        string
	Instructions []Instruction
}

// Empty reports whether the document has nothing to print
func (d Document) Empty() bool {
	return len(d.Instructions) == 0
}

// Concat joins documents into one, resetting style and alignment between them
func Concat(docs ...Document) Document {
	var out Document
	for _, d := range docs {
		if d.Empty() {
			continue
		}
		if out.Empty() {
			out.Title = d.Title
		} else {
			out.Instructions = append(out.Instructions,
				Instruction{Kind: KindStyle, Size: SizeNormal},
				Instruction{Kind: KindAlign, Align: AlignLeft},
			)
		}
		out.Instructions = append(out.Instructions, d.Instructions...)
	}
	return out
}
