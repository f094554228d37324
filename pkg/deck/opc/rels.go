package opc

import (
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
)

const relationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"

// Relationship types used by generated packages.
const (
	RelOfficeDocument     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelCoreProperties     = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	RelExtendedProperties = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	RelThumbnail          = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/thumbnail"
	RelImage              = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelSlide              = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	RelSlideMaster        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	RelSlideLayout        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	RelTheme              = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	RelPresProps          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/presProps"
	RelViewProps          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/viewProps"
	RelTableStyles        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/tableStyles"
)

// TargetModeExternal marks a relationship whose target lives outside the
// package.
const TargetModeExternal = "External"

// Relationship represents a relationship in the package
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents the collection of relationships
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// Scope is the relationship list owned by one part. Ids are allocated
// monotonically from rId1 and never reused. A Scope is not safe for
// concurrent use.
type Scope struct {
	owner string
	rels  []Relationship
	next  int
}

func newScope(owner string) *Scope {
	return &Scope{owner: owner, next: 1}
}

// Owner returns the name of the owning part; "" is the package root.
func (s *Scope) Owner() string { return s.owner }

// PartName returns the name of the ".rels" part this scope renders to.
func (s *Scope) PartName() string { return RelsPartName(s.owner) }

// Add appends a relationship and returns its id.
func (s *Scope) Add(relType, target string) string {
	id := "rId" + strconv.Itoa(s.next)
	s.next++
	s.rels = append(s.rels, Relationship{ID: id, Type: relType, Target: target})
	return id
}

// Len returns the number of relationships in the scope.
func (s *Scope) Len() int { return len(s.rels) }

// Relationships returns a copy of the scope's relationships in allocation
// order.
func (s *Scope) Relationships() []Relationship {
	out := make([]Relationship, len(s.rels))
	copy(out, s.rels)
	return out
}

// Lookup returns the relationship with the given id.
func (s *Scope) Lookup(id string) (Relationship, bool) {
	for _, rel := range s.rels {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

func (s *Scope) marshal() ([]byte, error) {
	out, err := xml.Marshal(&Relationships{
		Namespace:    relationshipsNamespace,
		Relationship: s.rels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal relationships of %q: %w", s.owner, err)
	}
	return append([]byte(XMLHeader), out...), nil
}

// Graph holds every relationship scope of a package. Scope creation and
// lookup are guarded, so distinct scopes can be filled from different
// goroutines.
type Graph struct {
	mu     sync.Mutex
	scopes map[string]*Scope
	order  []*Scope
}

// NewGraph returns an empty relationship graph.
func NewGraph() *Graph {
	return &Graph{scopes: make(map[string]*Scope)}
}

// CreateScope creates the scope owned by ownerPart. Each part owns at most
// one scope.
func (g *Graph) CreateScope(ownerPart string) (*Scope, error) {
	ownerPart = normalizePartName(ownerPart)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.scopes[ownerPart]; ok {
		return nil, &ConflictError{Kind: "relationship scope", Key: ownerPart}
	}
	s := newScope(ownerPart)
	g.scopes[ownerPart] = s
	g.order = append(g.order, s)
	return s, nil
}

// Scope returns the scope owned by ownerPart.
func (g *Graph) Scope(ownerPart string) (*Scope, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.scopes[normalizePartName(ownerPart)]
	return s, ok
}

// Scopes returns every scope in creation order.
func (g *Graph) Scopes() []*Scope {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Scope, len(g.order))
	copy(out, g.order)
	return out
}

// Render produces the ".rels" part content for a scope of this graph.
func (g *Graph) Render(s *Scope) ([]byte, error) {
	g.mu.Lock()
	owned := g.scopes[s.owner] == s
	g.mu.Unlock()
	if !owned {
		return nil, fmt.Errorf("relationship scope %q does not belong to this graph", s.owner)
	}
	return s.marshal()
}

// RelsPartName converts a part name to its relationships part name,
// e.g. "ppt/slides/slide1.xml" -> "ppt/slides/_rels/slide1.xml.rels".
// The package root ("") maps to "_rels/.rels".
func RelsPartName(ownerPart string) string {
	ownerPart = normalizePartName(ownerPart)
	dir, base := path.Split(ownerPart)
	return dir + "_rels/" + base + ".rels"
}

// OwnerOfRelsPart is the inverse of RelsPartName.
func OwnerOfRelsPart(relsPart string) (string, bool) {
	relsPart = normalizePartName(relsPart)
	if !strings.HasSuffix(relsPart, ".rels") {
		return "", false
	}
	dir, base := path.Split(relsPart)
	if !strings.HasSuffix(dir, "_rels/") {
		return "", false
	}
	return strings.TrimSuffix(dir, "_rels/") + strings.TrimSuffix(base, ".rels"), true
}

// ResolveTarget resolves an internal relationship target against the
// directory of its owning part and returns the referenced part name.
func ResolveTarget(ownerPart, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(target[1:])
	}
	dir := path.Dir(normalizePartName(ownerPart))
	return strings.TrimPrefix(path.Clean(path.Join(dir, target)), "./")
}

// ParseRelationships parses the content of a ".rels" part.
func ParseRelationships(data []byte) ([]Relationship, error) {
	var rels Relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships: %w", err)
	}
	return rels.Relationship, nil
}
