// Package dom wraps a parsed host page so widget instances can query, mutate and
// listen to it the way an embedded script works against a browser document.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// DefaultViewportWidth is used when the caller does not specify a viewport.
	DefaultViewportWidth = 1280.0

	errorMessageParseDocument = "dom: parse document"
	errorMessageParseFragment = "dom: parse fragment"
	errorMessageNilNode       = "dom: nil node"
)

var errNilNode = errors.New(errorMessageNilNode)

// Option customizes a Document at parse time.
type Option func(*Document)

// WithLocation sets the page URL the document was served from.
func WithLocation(rawURL string) Option {
	return func(document *Document) {
		parsedURL, parseErr := url.Parse(strings.TrimSpace(rawURL))
		if parseErr != nil {
			return
		}
		document.location = parsedURL
	}
}

// WithViewportWidth sets the initial viewport width in CSS pixels.
func WithViewportWidth(width float64) Option {
	return func(document *Document) {
		if width > 0 {
			document.viewportWidth = width
		}
	}
}

// Document is a host page tree guarded by a single mutex. All reads and writes go
// through its methods; listeners are invoked outside the lock.
type Document struct {
	mutex           sync.Mutex
	root            *html.Node
	location        *url.URL
	viewportWidth   float64
	nodeListeners   map[*html.Node]map[string][]*Listener
	windowListeners map[string][]*Listener
	nextListenerID  uint64
}

// Parse reads a full HTML document.
func Parse(reader io.Reader, options ...Option) (*Document, error) {
	root, parseErr := html.Parse(reader)
	if parseErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageParseDocument, parseErr)
	}
	document := &Document{
		root:            root,
		location:        &url.URL{},
		viewportWidth:   DefaultViewportWidth,
		nodeListeners:   make(map[*html.Node]map[string][]*Listener),
		windowListeners: make(map[string][]*Listener),
	}
	for _, option := range options {
		option(document)
	}
	return document, nil
}

// ParseString reads a full HTML document from a string.
func ParseString(markup string, options ...Option) (*Document, error) {
	return Parse(strings.NewReader(markup), options...)
}

// Root returns the document node.
func (document *Document) Root() *html.Node {
	return document.root
}

// Origin returns scheme://host of the page location, or an empty string.
func (document *Document) Origin() string {
	if document.location == nil || document.location.Scheme == "" || document.location.Host == "" {
		return ""
	}
	return document.location.Scheme + "://" + document.location.Host
}

// Hostname returns the page hostname without port.
func (document *Document) Hostname() string {
	if document.location == nil {
		return ""
	}
	return document.location.Hostname()
}

// ViewportWidth returns the current viewport width.
func (document *Document) ViewportWidth() float64 {
	document.mutex.Lock()
	defer document.mutex.Unlock()
	return document.viewportWidth
}

// Resize updates the viewport width and notifies window resize listeners.
func (document *Document) Resize(width float64) {
	document.mutex.Lock()
	if width > 0 {
		document.viewportWidth = width
	}
	document.mutex.Unlock()
	document.Dispatch(nil, &Event{Type: EventResize})
}

// Render writes the document as HTML.
func (document *Document) Render(writer io.Writer) error {
	document.mutex.Lock()
	defer document.mutex.Unlock()
	return html.Render(writer, document.root)
}

// String renders the document, returning an empty string on failure.
func (document *Document) String() string {
	var buffer bytes.Buffer
	if renderErr := document.Render(&buffer); renderErr != nil {
		return ""
	}
	return buffer.String()
}

// ElementByID finds the first element with the given id.
func (document *Document) ElementByID(identifier string) *html.Node {
	if strings.TrimSpace(identifier) == "" {
		return nil
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	return findNode(document.root, func(node *html.Node) bool {
		return node.Type == html.ElementNode && attributeValue(node, "id") == identifier
	})
}

// Head returns the head element, if any.
func (document *Document) Head() *html.Node {
	document.mutex.Lock()
	defer document.mutex.Unlock()
	return findNode(document.root, func(node *html.Node) bool {
		return node.Type == html.ElementNode && node.DataAtom == atom.Head
	})
}

// Body returns the body element, if any.
func (document *Document) Body() *html.Node {
	document.mutex.Lock()
	defer document.mutex.Unlock()
	return findNode(document.root, func(node *html.Node) bool {
		return node.Type == html.ElementNode && node.DataAtom == atom.Body
	})
}

// Find returns every element in the document matching the CSS selector.
func (document *Document) Find(selector string) []*html.Node {
	document.mutex.Lock()
	defer document.mutex.Unlock()
	return goquery.NewDocumentFromNode(document.root).Find(selector).Nodes
}

// FindWithin returns descendants of scope matching the CSS selector.
func (document *Document) FindWithin(scope *html.Node, selector string) []*html.Node {
	if scope == nil {
		return nil
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	return goquery.NewDocumentFromNode(scope).Find(selector).Nodes
}

// FirstWithin returns the first descendant of scope matching the selector.
func (document *Document) FirstWithin(scope *html.Node, selector string) *html.Node {
	matches := document.FindWithin(scope, selector)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// Closest returns node or its nearest ancestor matching the selector.
func (document *Document) Closest(node *html.Node, selector string) *html.Node {
	if node == nil {
		return nil
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	matches := goquery.NewDocumentFromNode(node).Selection.Closest(selector).Nodes
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// Scripts returns every script element.
func (document *Document) Scripts() []*html.Node {
	return document.Find("script")
}

// Attribute reads an attribute of node.
func (document *Document) Attribute(node *html.Node, name string) (string, bool) {
	if node == nil {
		return "", false
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	for _, attribute := range node.Attr {
		if attribute.Key == name {
			return attribute.Val, true
		}
	}
	return "", false
}

// SetAttribute sets or replaces an attribute.
func (document *Document) SetAttribute(node *html.Node, name string, value string) {
	if node == nil {
		return
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	setAttributeValue(node, name, value)
}

// RemoveAttribute deletes an attribute when present.
func (document *Document) RemoveAttribute(node *html.Node, name string) {
	if node == nil {
		return
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	removeAttributeValue(node, name)
}

// HasClass reports whether node carries the class.
func (document *Document) HasClass(node *html.Node, className string) bool {
	if node == nil {
		return false
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	for _, existing := range strings.Fields(attributeValue(node, "class")) {
		if existing == className {
			return true
		}
	}
	return false
}

// AddClass adds a class once.
func (document *Document) AddClass(node *html.Node, className string) {
	if node == nil {
		return
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	classes := strings.Fields(attributeValue(node, "class"))
	for _, existing := range classes {
		if existing == className {
			return
		}
	}
	setAttributeValue(node, "class", strings.Join(append(classes, className), " "))
}

// RemoveClass removes every occurrence of the class.
func (document *Document) RemoveClass(node *html.Node, className string) {
	if node == nil {
		return
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	classes := strings.Fields(attributeValue(node, "class"))
	kept := classes[:0]
	for _, existing := range classes {
		if existing != className {
			kept = append(kept, existing)
		}
	}
	setAttributeValue(node, "class", strings.Join(kept, " "))
}

// ToggleClass sets or clears the class.
func (document *Document) ToggleClass(node *html.Node, className string, enabled bool) {
	if enabled {
		document.AddClass(node, className)
		return
	}
	document.RemoveClass(node, className)
}

// Style reads one inline style property.
func (document *Document) Style(node *html.Node, property string) string {
	if node == nil {
		return ""
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	return parseInlineStyle(attributeValue(node, "style")).get(property)
}

// SetStyle sets one inline style property; an empty value removes it.
func (document *Document) SetStyle(node *html.Node, property string, value string) {
	if node == nil {
		return
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	declarations := parseInlineStyle(attributeValue(node, "style"))
	declarations.set(property, value)
	if serialized := declarations.String(); serialized != "" {
		setAttributeValue(node, "style", serialized)
		return
	}
	removeAttributeValue(node, "style")
}

// Text returns the concatenated text content of node.
func (document *Document) Text(node *html.Node) string {
	if node == nil {
		return ""
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	return goquery.NewDocumentFromNode(node).Selection.Text()
}

// SetText replaces the children of node with a single text node.
func (document *Document) SetText(node *html.Node, text string) {
	if node == nil {
		return
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	removeChildren(node)
	node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// SetInnerHTML replaces the children of node with the parsed markup.
func (document *Document) SetInnerHTML(node *html.Node, markup string) error {
	if node == nil {
		return errNilNode
	}
	fragment, parseErr := html.ParseFragment(strings.NewReader(markup), fragmentContext(node))
	if parseErr != nil {
		return fmt.Errorf("%s: %w", errorMessageParseFragment, parseErr)
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	removeChildren(node)
	for _, child := range fragment {
		node.AppendChild(child)
	}
	return nil
}

// AppendHTML parses markup and appends it to node, returning the appended top-level nodes.
func (document *Document) AppendHTML(node *html.Node, markup string) ([]*html.Node, error) {
	if node == nil {
		return nil, errNilNode
	}
	fragment, parseErr := html.ParseFragment(strings.NewReader(markup), fragmentContext(node))
	if parseErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageParseFragment, parseErr)
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	for _, child := range fragment {
		node.AppendChild(child)
	}
	return fragment, nil
}

// Remove detaches node from its parent.
func (document *Document) Remove(node *html.Node) {
	if node == nil {
		return
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	if node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
}

// IsAttached reports whether node is still reachable from the document root.
func (document *Document) IsAttached(node *html.Node) bool {
	if node == nil {
		return false
	}
	document.mutex.Lock()
	defer document.mutex.Unlock()
	current := node
	for current.Parent != nil {
		current = current.Parent
	}
	return current == document.root
}

func fragmentContext(node *html.Node) *html.Node {
	if node.Type == html.ElementNode {
		return node
	}
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
}

func findNode(node *html.Node, matches func(*html.Node) bool) *html.Node {
	if node == nil {
		return nil
	}
	if matches(node) {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findNode(child, matches); found != nil {
			return found
		}
	}
	return nil
}

func removeChildren(node *html.Node) {
	for node.FirstChild != nil {
		node.RemoveChild(node.FirstChild)
	}
}

func attributeValue(node *html.Node, name string) string {
	for _, attribute := range node.Attr {
		if attribute.Key == name {
			return attribute.Val
		}
	}
	return ""
}

func setAttributeValue(node *html.Node, name string, value string) {
	for index := range node.Attr {
		if node.Attr[index].Key == name {
			node.Attr[index].Val = value
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttributeValue(node *html.Node, name string) {
	kept := node.Attr[:0]
	for _, attribute := range node.Attr {
		if attribute.Key != name {
			kept = append(kept, attribute)
		}
	}
	node.Attr = kept
}
