package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// CellKind classifies a notebook cell.
type CellKind int

const (
	CellOther CellKind = iota
	CellCode
	CellMarkdown
)

// OutputKind classifies a captured cell output.
type OutputKind int

const (
	OutputOther OutputKind = iota
	OutputResult
	OutputStream
)

// Notebook is the lenient view of a cell-oriented notebook document.
// Fields with unexpected JSON types are treated as absent.
type Notebook struct {
	HasMetadata bool   // The document has a metadata key, whatever its type.
	Kernel      string // metadata.kernelspec.display_name, empty when absent.
	HasCells    bool   // cells was present and an array.
	Cells       []Cell
}

// Cell is one notebook cell in document order.
type Cell struct {
	Kind       CellKind
	Type       string // Raw cell_type, "unknown" when absent.
	HasSource  bool
	Source     []string // Fragments, concatenated verbatim when rendered.
	HasOutputs bool
	Outputs    []Output
}

// Output is one captured output of a code cell.
type Output struct {
	Kind       OutputKind
	StreamName string
	HasText    bool
	Lines      []string
}

// ParseNotebook decodes a notebook. Only malformed JSON is an error; shape
// mismatches are skipped silently.
func ParseNotebook(r io.Reader) (*Notebook, error) {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	nb := &Notebook{}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nb, nil
	}

	rawMeta, hasMeta := doc["metadata"]
	nb.HasMetadata = hasMeta
	meta, _ := object(rawMeta)
	if kernelspec, ok := object(meta["kernelspec"]); ok {
		nb.Kernel, _ = kernelspec["display_name"].(string)
	}

	cells, ok := doc["cells"].([]any)
	if !ok {
		return nb, nil
	}
	nb.HasCells = true
	for _, c := range cells {
		cell, _ := object(c)
		nb.Cells = append(nb.Cells, parseCell(cell))
	}
	return nb, nil
}

func parseCell(raw map[string]any) Cell {
	cell := Cell{Type: "unknown"}
	if t, ok := raw["cell_type"].(string); ok {
		cell.Type = t
	}
	switch cell.Type {
	case "code":
		cell.Kind = CellCode
	case "markdown":
		cell.Kind = CellMarkdown
	}

	cell.Source, cell.HasSource = fragments(raw["source"])

	outputs, ok := raw["outputs"].([]any)
	if !ok {
		return cell
	}
	cell.HasOutputs = true
	for _, o := range outputs {
		out, _ := object(o)
		cell.Outputs = append(cell.Outputs, parseOutput(out))
	}
	return cell
}

func parseOutput(raw map[string]any) Output {
	var out Output
	switch raw["output_type"] {
	case "execute_result", "display_data":
		out.Kind = OutputResult
		data, _ := object(raw["data"])
		out.Lines, out.HasText = fragments(data["text/plain"])
	case "stream":
		out.Kind = OutputStream
		out.StreamName = "stdout"
		if name, ok := raw["name"].(string); ok {
			out.StreamName = name
		}
		out.Lines, out.HasText = fragments(raw["text"])
	}
	return out
}

// object returns v as a JSON object. A nil map is safe to index.
func object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// fragments accepts either a string or an array of strings, the two shapes
// the notebook format allows for multi-line text. Non-string elements are dropped.
func fragments(v any) ([]string, bool) {
	switch t := v.(type) {
	case string:
		return []string{t}, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// Render writes the flattened notebook body.
func (nb *Notebook) Render(w io.Writer) error {
	_, err := io.WriteString(w, nb.Text())
	return err
}

// Text returns the flattened notebook body.
func (nb *Notebook) Text() string {
	var b strings.Builder
	if nb.HasMetadata {
		b.WriteString("// Notebook Metadata:\n")
	}
	if nb.Kernel != "" {
		fmt.Fprintf(&b, "// Kernel: %s\n", nb.Kernel)
	}
	if nb.HasCells {
		b.WriteString("\n// Notebook Content:\n")
		for i, cell := range nb.Cells {
			cell.render(&b, i+1)
		}
	}
	return b.String()
}

func (c Cell) render(b *strings.Builder, index int) {
	fmt.Fprintf(b, "\n// --- Cell %d (%s) ---\n", index, c.Type)
	if c.HasSource {
		for _, fragment := range c.Source {
			b.WriteString(fragment)
		}
		b.WriteString("\n")
	}

	if c.Kind != CellCode || !c.HasOutputs {
		return
	}
	b.WriteString("// --- Output ---\n")
	for _, out := range c.Outputs {
		if !out.HasText {
			continue
		}
		switch out.Kind {
		case OutputResult:
			b.WriteString("// Result (text/plain):\n")
		case OutputStream:
			fmt.Fprintf(b, "// Stream (%s):\n", out.StreamName)
		default:
			continue
		}
		for _, line := range out.Lines {
			b.WriteString("// " + strings.TrimSuffix(line, "\n") + "\n")
		}
	}
}

func (e *Extractor) extractNotebook(path string) Result {
	f, err := os.Open(path)
	if err != nil {
		return e.unreadable(path, err)
	}
	defer f.Close()

	res := Result{
		Path:   path,
		Header: fmt.Sprintf("// File: %s (Jupyter Notebook)", path),
	}

	nb, err := ParseNotebook(f)
	if err != nil {
		e.logger.Warn("Failed to parse notebook", zap.String("filePath", path), zap.Error(err))
		res.Body = fmt.Sprintf("// Error parsing notebook: %v\n", err)
		res.Reason = ParseError
		res.Err = err
		return res
	}

	res.Body = nb.Text()
	e.logger.Debug("Flattened notebook", zap.String("filePath", path), zap.Int("cells", len(nb.Cells)))
	return res
}
