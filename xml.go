// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package problem

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// XMLNamespace is the namespace of XML problem documents, as registered for
// the format.
const XMLNamespace = "urn:ietf:rfc:7807"

// XMLCodec reads and writes application/problem+xml documents.
//
// The document root is a "problem" element in [XMLNamespace]. Member ordering
// mirrors [JSONCodec]: fixed members first (type, title, status, detail,
// instance), then extensions in insertion order. Extension values map onto
// XML structurally: objects become nested elements, arrays become repeated
// "i" elements, and scalars become text content.
//
// XML element names are stricter than JSON member names, so encoding fails
// with [ErrUnsupportedValue] when an extension member (or a key nested inside
// one) is not a valid element name. Problems built from Go identifiers are
// never affected.
//
// XML carries no value types, so decoded extension scalars are strings. A
// decoded document re-encodes to XML losslessly; converting it to JSON
// renders numbers and booleans as strings.
type XMLCodec struct{}

// MediaType returns [MediaTypeXML].
func (XMLCodec) MediaType() string {
	return MediaTypeXML
}

// Encode serializes p as a problem element in [XMLNamespace].
func (XMLCodec) Encode(p Problem) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	root := xml.Name{Local: "problem"}
	start := xml.StartElement{
		Name: root,
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: XMLNamespace}},
	}
	if err := enc.EncodeToken(start); err != nil {
		return nil, err
	}

	if p.Type != "" {
		if err := encodeTextElement(enc, "type", p.Type); err != nil {
			return nil, err
		}
	}
	if p.Title != "" {
		if err := encodeTextElement(enc, "title", p.Title); err != nil {
			return nil, err
		}
	}
	if p.Status != 0 {
		if err := encodeTextElement(enc, "status", strconv.Itoa(p.Status)); err != nil {
			return nil, err
		}
	}
	if p.Detail != "" {
		if err := encodeTextElement(enc, "detail", p.Detail); err != nil {
			return nil, err
		}
	}
	if p.Instance != "" {
		if err := encodeTextElement(enc, "instance", p.Instance); err != nil {
			return nil, err
		}
	}

	for _, m := range p.ext.members {
		if err := encodeExtensionElement(enc, m); err != nil {
			return nil, err
		}
	}

	if err := enc.EncodeToken(xml.EndElement{Name: root}); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeExtensionElement renders one extension member from its raw JSON so
// nested object members keep their original order.
func encodeExtensionElement(enc *xml.Encoder, m member) error {
	if !validXMLName(m.name) {
		return &MemberError{
			Name: m.name,
			Err:  fmt.Errorf("name is not a valid XML element name: %w", ErrUnsupportedValue),
		}
	}
	dec := json.NewDecoder(bytes.NewReader(m.raw))
	dec.UseNumber()
	if err := emitValueElement(enc, m.name, m.name, dec); err != nil {
		return err
	}
	return nil
}

// emitValueElement writes one JSON value as an XML element named name.
// member is the top-level extension member being rendered, used in errors.
func emitValueElement(enc *xml.Encoder, member, name string, dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	elem := xml.Name{Local: name}
	delim, compound := tok.(json.Delim)
	if !compound {
		return encodeTextElement(enc, name, scalarText(tok))
	}

	if err := enc.EncodeToken(xml.StartElement{Name: elem}); err != nil {
		return err
	}
	switch delim {
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key := keyTok.(string)
			if !validXMLName(key) {
				return &MemberError{
					Name: member,
					Err:  fmt.Errorf("key %q is not a valid XML element name: %w", key, ErrUnsupportedValue),
				}
			}
			if err := emitValueElement(enc, member, key, dec); err != nil {
				return err
			}
		}
	case '[':
		for dec.More() {
			if err := emitValueElement(enc, member, "i", dec); err != nil {
				return err
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return enc.EncodeToken(xml.EndElement{Name: elem})
}

func scalarText(tok json.Token) string {
	switch t := tok.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		// JSON null renders as an empty element.
		return ""
	}
}

func encodeTextElement(enc *xml.Encoder, name, text string) error {
	elem := xml.Name{Local: name}
	if err := enc.EncodeToken(xml.StartElement{Name: elem}); err != nil {
		return err
	}
	if text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(xml.EndElement{Name: elem})
}

// validXMLName reports whether s can be used as an XML element name.
// Namespace prefixes are not supported, so the colon is excluded.
func validXMLName(s string) bool {
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '.' && r != '_' {
			return false
		}
	}
	return s != ""
}

// Decode parses an XML problem document. The root element must be named
// "problem"; a missing namespace is tolerated, any other namespace is
// rejected. Fixed members must be text-only and may appear at most once;
// other child elements become extensions in document order.
func (XMLCodec) Decode(data []byte) (Problem, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	root, err := nextStartElement(dec)
	if err != nil {
		return Problem{}, malformedError("not an XML document: " + err.Error())
	}
	if root.Name.Local != "problem" {
		return Problem{}, malformedError(fmt.Sprintf("root element is %q, expected %q", root.Name.Local, "problem"))
	}
	if root.Name.Space != "" && root.Name.Space != XMLNamespace {
		return Problem{}, malformedError(fmt.Sprintf("root element namespace is %q, expected %q", root.Name.Space, XMLNamespace))
	}

	var p Problem
	seen := make(map[string]bool, 5)
	for {
		tok, err := dec.Token()
		if err != nil {
			return Problem{}, malformedError("invalid XML: " + err.Error())
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			node, err := parseElement(dec, 1)
			if err != nil {
				return Problem{}, malformedError("invalid XML: " + err.Error())
			}
			if reservedMember(name) {
				if seen[name] {
					return Problem{}, malformedError("duplicate member " + strconv.Quote(name))
				}
				seen[name] = true
			}
			switch name {
			case "type":
				p.Type, err = node.textValue(name)
			case "title":
				p.Title, err = node.textValue(name)
			case "status":
				p.Status, err = node.statusValue()
			case "detail":
				p.Detail, err = node.textValue(name)
			case "instance":
				p.Instance, err = node.textValue(name)
			default:
				value := node.value()
				// Only strings, slices, and maps reach Marshal here.
				raw, _ := json.Marshal(value)
				p.ext, err = p.ext.insertDecoded(name, value, raw)
			}
			if err != nil {
				return Problem{}, err
			}
		case xml.EndElement:
			// The root element closed; only whitespace and comments
			// may follow.
			if err := trailingTokens(dec); err != nil {
				return Problem{}, err
			}
			return p, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return Problem{}, malformedError("unexpected text content in problem element")
			}
		}
	}
}

// xmlNode is one parsed element: its accumulated character data plus its
// child elements in document order.
type xmlNode struct {
	text     string
	children []xmlChild
}

type xmlChild struct {
	name string
	node xmlNode
}

// maxElementDepth bounds member element nesting during decode. Parsing
// recurses once per level, so unbounded input must not drive the depth.
const maxElementDepth = 1000

// parseElement consumes tokens through the matching end element. The decoder
// guarantees start and end elements pair up, so the end token seen here
// always closes the element being parsed. depth counts the levels above this
// element; past [maxElementDepth] the document is rejected.
func parseElement(dec *xml.Decoder, depth int) (xmlNode, error) {
	if depth > maxElementDepth {
		return xmlNode{}, fmt.Errorf("element nesting deeper than %d levels", maxElementDepth)
	}
	var node xmlNode
	var text bytes.Buffer
	for {
		tok, err := dec.Token()
		if err != nil {
			return xmlNode{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, depth+1)
			if err != nil {
				return xmlNode{}, err
			}
			node.children = append(node.children, xmlChild{name: t.Name.Local, node: child})
		case xml.EndElement:
			node.text = text.String()
			return node, nil
		case xml.CharData:
			text.Write(t)
		}
	}
}

// textValue returns the node's text for a fixed member, rejecting element
// content. Text is preserved exactly, including surrounding whitespace.
func (n xmlNode) textValue(name string) (string, error) {
	if len(n.children) != 0 {
		return "", mismatchError(name, "expected text content")
	}
	return n.text, nil
}

func (n xmlNode) statusValue() (int, error) {
	text, err := n.textValue("status")
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, mismatchError("status", "expected an integer")
	}
	if s < 100 || s > 599 {
		return 0, mismatchError("status", fmt.Sprintf("value %d outside the HTTP status range", s))
	}
	return s, nil
}

// value converts a parsed element to a generic Go value: a text-only element
// becomes a string, children all named "i" become a slice, and any other
// children become a map. Indentation whitespace around child elements is
// discarded.
func (n xmlNode) value() any {
	if len(n.children) == 0 {
		return n.text
	}
	list := true
	for _, c := range n.children {
		if c.name != "i" {
			list = false
			break
		}
	}
	if list {
		arr := make([]any, 0, len(n.children))
		for _, c := range n.children {
			arr = append(arr, c.node.value())
		}
		return arr
	}
	obj := make(map[string]any, len(n.children))
	for _, c := range n.children {
		obj[c.name] = c.node.value()
	}
	return obj
}

// nextStartElement skips prolog tokens (declarations, comments, whitespace)
// up to the document's root element.
func nextStartElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

// trailingTokens rejects anything but whitespace and comments after the
// root element.
func trailingTokens(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return malformedError("invalid XML: " + err.Error())
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return malformedError("trailing data after problem element")
			}
		case xml.Comment, xml.ProcInst:
		default:
			return malformedError("trailing data after problem element")
		}
	}
}
