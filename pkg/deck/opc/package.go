package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"
)

// Part represents one named entry of the package
type Part struct {
	Name string
	Data []byte
	// ContentType is the declared type. Empty means the type comes from the
	// extension default.
	ContentType string
}

// defaultModTime keeps archives byte-identical across runs.
var defaultModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Package is an in-memory part graph: the parts, their content types and
// their relationships.
type Package struct {
	Types *ContentTypes
	Rels  *Graph

	// ModTime is stamped on every archive entry.
	ModTime time.Time

	parts  []*Part
	index  map[string]*Part
	root   *Scope
	sealed bool
}

// NewPackage returns an empty package with the root relationship scope
// already created.
func NewPackage() *Package {
	g := NewGraph()
	// the graph is fresh, the root scope cannot exist yet
	root, _ := g.CreateScope("")
	return &Package{
		Types:   NewContentTypes(),
		Rels:    g,
		ModTime: defaultModTime,
		index:   make(map[string]*Part),
		root:    root,
	}
}

// Root returns the package-level relationship scope ("_rels/.rels").
func (p *Package) Root() *Scope { return p.root }

// Sealed reports whether Seal has completed.
func (p *Package) Sealed() bool { return p.sealed }

func isReservedName(name string) bool {
	if name == ContentTypesPartName {
		return true
	}
	_, ok := OwnerOfRelsPart(name)
	return ok
}

// AddPart adds a part typed by its extension default.
func (p *Package) AddPart(name string, data []byte) (*Part, error) {
	return p.AddPartWithType(name, "", data)
}

// AddPartWithType adds a part and, when contentType is set, registers an
// override for it. Relationship parts and the manifest are produced by Seal
// and cannot be added directly.
func (p *Package) AddPartWithType(name, contentType string, data []byte) (*Part, error) {
	if p.sealed {
		return nil, ErrSealed
	}
	name = normalizePartName(name)
	if name == "" || strings.HasSuffix(name, "/") {
		return nil, fmt.Errorf("invalid part name %q", name)
	}
	if isReservedName(name) {
		return nil, fmt.Errorf("part name %q is reserved for generated parts", name)
	}
	if _, ok := p.index[name]; ok {
		return nil, &ConflictError{Kind: "part", Key: name}
	}
	if contentType != "" {
		if err := p.Types.RegisterOverride(name, contentType); err != nil {
			return nil, err
		}
	}
	part := &Part{Name: name, Data: data, ContentType: contentType}
	p.parts = append(p.parts, part)
	p.index[name] = part
	return part, nil
}

// Part returns the part with the given name.
func (p *Package) Part(name string) (*Part, bool) {
	part, ok := p.index[normalizePartName(name)]
	return part, ok
}

// Parts returns every part in insertion order. After Seal this includes the
// generated relationship parts and the manifest.
func (p *Package) Parts() []*Part {
	out := make([]*Part, len(p.parts))
	copy(out, p.parts)
	return out
}

// Validate checks the structural invariants of the part graph: every scope
// is owned by an existing part, relationship ids are unique per scope, every
// internal target exists, and every part has a content type that agrees
// with its declaration.
func (p *Package) Validate() error {
	exists := func(name string) bool {
		_, ok := p.index[name]
		return ok
	}
	scopes := make(map[string][]Relationship)
	for _, s := range p.Rels.Scopes() {
		scopes[s.owner] = s.rels
	}
	names := make([]string, 0, len(p.parts))
	declared := make(map[string]string, len(p.parts))
	for _, part := range p.parts {
		if p.sealed && isReservedName(part.Name) {
			continue
		}
		names = append(names, part.Name)
		declared[part.Name] = part.ContentType
	}
	return check(names, declared, p.Types, scopes, exists).err()
}

// check is shared by Package.Validate and Reader.Validate.
func check(names []string, declared map[string]string, types *ContentTypes, scopes map[string][]Relationship, exists func(string) bool) Violations {
	var v Violations

	for _, name := range names {
		resolved, ok := types.Resolve(name)
		if !ok {
			v = append(v, &InvariantError{
				Rule:   RuleMissingContentType,
				Part:   name,
				Detail: fmt.Sprintf("no override and no default for extension %q", path.Ext(name)),
			})
			continue
		}
		if want := declared[name]; want != "" && want != resolved {
			v = append(v, &InvariantError{
				Rule:   RuleContentTypeClash,
				Part:   name,
				Detail: fmt.Sprintf("declared %q but manifest resolves %q", want, resolved),
			})
		}
	}

	owners := make([]string, 0, len(scopes))
	for owner := range scopes {
		owners = append(owners, owner)
	}
	slices.Sort(owners)

	for _, owner := range owners {
		if owner != "" && !exists(owner) {
			v = append(v, &InvariantError{
				Rule:   RuleOrphanScope,
				Part:   RelsPartName(owner),
				Detail: fmt.Sprintf("owner part %q does not exist", owner),
			})
		}
		seen := make(map[string]bool)
		for _, rel := range scopes[owner] {
			if seen[rel.ID] {
				v = append(v, &InvariantError{
					Rule:   RuleDuplicateRelID,
					Part:   RelsPartName(owner),
					Detail: fmt.Sprintf("id %s used more than once", rel.ID),
				})
			}
			seen[rel.ID] = true
			if rel.TargetMode == TargetModeExternal {
				continue
			}
			target := ResolveTarget(owner, rel.Target)
			if !exists(target) {
				v = append(v, &InvariantError{
					Rule:   RuleDanglingTarget,
					Part:   RelsPartName(owner),
					Detail: fmt.Sprintf("%s -> %s (%s) does not resolve to a part", rel.ID, rel.Target, target),
				})
			}
		}
	}
	return v
}

// Seal validates the package, renders every non-empty relationship scope to
// its ".rels" part and renders the content-type manifest. A sealed package
// accepts no further parts.
func (p *Package) Seal() error {
	if p.sealed {
		return ErrSealed
	}
	if err := p.Validate(); err != nil {
		return err
	}

	var generated []*Part
	for _, s := range p.Rels.Scopes() {
		if s.Len() == 0 {
			continue
		}
		data, err := p.Rels.Render(s)
		if err != nil {
			return err
		}
		generated = append(generated, &Part{Name: s.PartName(), Data: data})
	}
	manifest, err := p.Types.Marshal()
	if err != nil {
		return err
	}

	for _, part := range generated {
		p.parts = append(p.parts, part)
		p.index[part.Name] = part
	}
	ct := &Part{Name: ContentTypesPartName, Data: manifest}
	p.parts = append(p.parts, ct)
	p.index[ct.Name] = ct
	p.sealed = true
	return nil
}

// entryOrder puts the manifest first and the root relationships second, the
// layout office viewers produce themselves. Other parts keep insertion order.
func (p *Package) entryOrder() []*Part {
	out := make([]*Part, 0, len(p.parts))
	rootRels := RelsPartName("")
	for _, name := range []string{ContentTypesPartName, rootRels} {
		if part, ok := p.index[name]; ok {
			out = append(out, part)
		}
	}
	for _, part := range p.parts {
		if part.Name == ContentTypesPartName || part.Name == rootRels {
			continue
		}
		out = append(out, part)
	}
	return out
}

// storedExtensions are already compressed; deflating them again only costs
// time.
var storedExtensions = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"gif":  true,
}

// WriteTo serializes a sealed package as a ZIP archive.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	if !p.sealed {
		return 0, ErrNotSealed
	}
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	for _, part := range p.entryOrder() {
		method := zip.Deflate
		if storedExtensions[normalizeExtension(path.Ext(part.Name))] {
			method = zip.Store
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     part.Name,
			Method:   method,
			Modified: p.ModTime,
		})
		if err != nil {
			return cw.n, fmt.Errorf("failed to create %s: %w", part.Name, err)
		}
		if _, err := fw.Write(part.Data); err != nil {
			return cw.n, fmt.Errorf("failed to write %s: %w", part.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to close zip writer: %w", err)
	}
	return cw.n, nil
}

// Bytes serializes a sealed package into memory.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
