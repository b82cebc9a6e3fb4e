// Package daydoc stores work-log entries as one multi-document YAML file per
// day and edits those files in place without losing comments or manual
// changes.
package daydoc

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/christopherklint97/hourbridge/internal/worklog"
)

// ParseError reports a document that could not be read as an entry. A single
// ParseError invalidates the whole day file.
type ParseError struct {
	Path string
	Doc  int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: document %d: %v", e.Path, e.Doc, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Document is one entry of a day file together with the YAML tree it was
// read from. Setters change both so that the rewritten file differs from the
// original only in the touched fields.
type Document struct {
	Index int
	Entry worklog.Entry

	node    *yaml.Node
	changed bool
}

func (d *Document) Changed() bool {
	return d.changed
}

func (d *Document) SetProjectID(id int64) {
	d.Entry.Ledger.ProjectID = worklog.Int64Ptr(id)
	d.setLedgerScalar("project_id", strconv.FormatInt(id, 10), "!!int", 0)
}

func (d *Document) SetTaskID(id int64) {
	d.Entry.Ledger.TaskID = worklog.Int64Ptr(id)
	d.setLedgerScalar("task_id", strconv.FormatInt(id, 10), "!!int", 0)
}

func (d *Document) SetUploadedAt(ts worklog.Timestamp) {
	d.Entry.Ledger.UploadedAt = &ts
	d.setLedgerScalar("uploaded_at", ts.String(), "!!str", yaml.DoubleQuotedStyle)
}

func (d *Document) setLedgerScalar(key, value, tag string, style yaml.Style) {
	ledger := d.ledgerNode()

	if current := mappingValue(ledger, key); current != nil {
		if current.Kind == yaml.ScalarNode && current.ShortTag() == tag && current.Value == value {
			return
		}
		current.Kind = yaml.ScalarNode
		current.Tag = tag
		current.Value = value
		current.Style = style
		current.Content = nil
		d.changed = true
		return
	}

	ledger.Content = append(ledger.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value, Style: style},
	)
	d.changed = true
}

// ledgerNode returns the ledger mapping, creating it when it is absent or
// null.
func (d *Document) ledgerNode() *yaml.Node {
	root := d.node.Content[0]
	ledger := mappingValue(root, "ledger")
	if ledger == nil {
		ledger = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "ledger"},
			ledger,
		)
		d.changed = true
		return ledger
	}
	if ledger.Kind != yaml.MappingNode {
		*ledger = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", LineComment: ledger.LineComment}
		d.changed = true
	}
	return ledger
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func decodeDocument(node *yaml.Node, index int) (*Document, error) {
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		return nil, errors.New("empty document")
	}
	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping, found %s", root.Line, root.ShortTag())
	}
	if mappingValue(root, "is_billable") == nil {
		return nil, fmt.Errorf("line %d: is_billable is required", root.Line)
	}
	if ledger := mappingValue(root, "ledger"); ledger != nil && ledger.Kind != yaml.MappingNode && ledger.ShortTag() != "!!null" {
		return nil, fmt.Errorf("line %d: ledger must be a mapping", ledger.Line)
	}

	doc := &Document{Index: index, node: node}
	if err := root.Decode(&doc.Entry); err != nil {
		return nil, err
	}
	for i, interval := range doc.Entry.TimeEntries {
		if !interval.Valid() {
			return nil, fmt.Errorf("time entry %d ends before it starts", i)
		}
	}

	return doc, nil
}

// Decode reads every document of a day stream. Any structural problem fails
// the whole stream.
func Decode(path string, r io.Reader) ([]*Document, error) {
	dec := yaml.NewDecoder(r)
	var docs []*Document
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Path: path, Doc: len(docs), Err: err}
		}

		doc, err := decodeDocument(&node, len(docs))
		if err != nil {
			return nil, &ParseError{Path: path, Doc: len(docs), Err: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Encode writes docs as a multi-document stream.
func Encode(w io.Writer, docs []*Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, d := range docs {
		if err := enc.Encode(d.node); err != nil {
			return fmt.Errorf("encoding document %d: %w", d.Index, err)
		}
	}
	return enc.Close()
}

// EncodeEntries writes freshly built entries as a multi-document stream.
func EncodeEntries(w io.Writer, entries []worklog.Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return fmt.Errorf("encoding entry %d: %w", i, err)
		}
	}
	return enc.Close()
}
