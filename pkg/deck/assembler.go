package deck

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/benjaminschreck/go-deck/pkg/deck/fetch"
	"github.com/benjaminschreck/go-deck/pkg/deck/media"
	"github.com/benjaminschreck/go-deck/pkg/deck/opc"
	"github.com/benjaminschreck/go-deck/pkg/deck/pml"
	"github.com/benjaminschreck/go-deck/pkg/deck/thumbnail"
)

type assemblyState int

const (
	stateEmpty assemblyState = iota
	stateInitialized
	stateAppending
	stateRendered
	stateSerialized
	stateFailed
)

func (s assemblyState) String() string {
	switch s {
	case stateEmpty:
		return "Empty"
	case stateInitialized:
		return "StructuralPartsInitialized"
	case stateAppending:
		return "SlideAppended"
	case stateRendered:
		return "ScopesRendered"
	case stateSerialized:
		return "Serialized"
	case stateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

func (s assemblyState) terminal() bool {
	return s == stateSerialized || s == stateFailed
}

// ruleMediaExtension is checked when a picture is appended: the media part's
// extension must resolve to the content type its bytes were stored as.
const ruleMediaExtension = "media-extension-mismatch"

// metadata is what the package-level property parts are rendered from.
type metadata struct {
	Creator    string
	Identifier uuid.UUID
	Created    time.Time
	Thumbnail  bool
}

// assembly builds one package. It is owned by a single goroutine and used
// for one request only.
type assembly struct {
	state   assemblyState
	style   pml.Style
	meta    metadata
	logger  *Logger
	pkg     *opc.Package
	store   *media.Store
	builder *pml.Builder

	pres      *pml.Presentation
	presScope *opc.Scope
	// parts whose content depends on the final slide list
	presPart      *opc.Part
	corePart      *opc.Part
	appPart       *opc.Part
	thumbnailPart *opc.Part

	slides []*pml.SlideRecord
	nextID uint32
}

func newAssembly(style pml.Style, meta metadata, logger *Logger) *assembly {
	return &assembly{
		style:   style,
		meta:    meta,
		logger:  logger,
		pkg:     opc.NewPackage(),
		store:   media.NewStore(),
		builder: pml.NewBuilder(style),
		nextID:  pml.MinSlideID,
	}
}

// advance moves to the next state when the current one is allowed.
func (a *assembly) advance(to assemblyState, from ...assemblyState) error {
	if a.state.terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, a.state)
	}
	for _, s := range from {
		if a.state == s {
			a.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.state, to)
}

// fail moves the assembly to Failed and returns err.
func (a *assembly) fail(err error) error {
	a.state = stateFailed
	return err
}

// structural is one part added while initializing.
type structural struct {
	name        string
	contentType string
	render      func() ([]byte, error)
	links       []pml.Link
}

// init adds every part that does not depend on the slides, plus
// placeholders for the ones rendered at the end.
func (a *assembly) init() error {
	if err := a.advance(stateInitialized, stateEmpty); err != nil {
		return err
	}

	root := a.pkg.Root()
	root.Add(opc.RelOfficeDocument, pml.PresentationPart)
	root.Add(opc.RelCoreProperties, pml.CorePropsPart)
	root.Add(opc.RelExtendedProperties, pml.AppPropsPart)
	if a.meta.Thumbnail {
		root.Add(opc.RelThumbnail, pml.ThumbnailPart)
	}

	var err error
	if a.presPart, err = a.pkg.AddPartWithType(pml.PresentationPart, pml.ContentTypePresentation, nil); err != nil {
		return a.fail(err)
	}
	if a.presScope, err = a.pkg.Rels.CreateScope(pml.PresentationPart); err != nil {
		return a.fail(err)
	}
	a.pres = &pml.Presentation{
		Style:       a.style,
		MasterRelID: a.presScope.Add(opc.RelSlideMaster, "slideMasters/slideMaster1.xml"),
	}
	a.presScope.Add(opc.RelPresProps, "presProps.xml")
	a.presScope.Add(opc.RelViewProps, "viewProps.xml")
	a.presScope.Add(opc.RelTheme, "theme/theme1.xml")
	a.presScope.Add(opc.RelTableStyles, "tableStyles.xml")

	parts := []structural{
		{
			name:        pml.SlideMasterPart,
			contentType: pml.ContentTypeSlideMaster,
			render:      func() ([]byte, error) { return pml.RenderSlideMaster(a.style) },
			links:       pml.MasterLinks(),
		},
		{
			name:        pml.SlideLayoutPart,
			contentType: pml.ContentTypeSlideLayout,
			render:      pml.RenderSlideLayout,
			links:       pml.LayoutLinks(),
		},
		{
			name:        pml.ThemePart,
			contentType: pml.ContentTypeTheme,
			render:      func() ([]byte, error) { return pml.RenderTheme(a.style) },
		},
		{name: pml.PresPropsPart, contentType: pml.ContentTypePresProps, render: pml.RenderPresProps},
		{name: pml.ViewPropsPart, contentType: pml.ContentTypeViewProps, render: pml.RenderViewProps},
		{name: pml.TableStylesPart, contentType: pml.ContentTypeTableStyles, render: pml.RenderTableStyles},
	}
	for _, s := range parts {
		data, err := s.render()
		if err != nil {
			return a.fail(NewDocumentError("render", s.name, err))
		}
		if _, err := a.pkg.AddPartWithType(s.name, s.contentType, data); err != nil {
			return a.fail(err)
		}
		if len(s.links) == 0 {
			continue
		}
		scope, err := a.pkg.Rels.CreateScope(s.name)
		if err != nil {
			return a.fail(err)
		}
		for _, l := range s.links {
			scope.Add(l.Type, l.Target)
		}
	}

	if a.corePart, err = a.pkg.AddPartWithType(pml.CorePropsPart, opc.ContentTypeCoreProperties, nil); err != nil {
		return a.fail(err)
	}
	if a.appPart, err = a.pkg.AddPartWithType(pml.AppPropsPart, opc.ContentTypeExtendedProperties, nil); err != nil {
		return a.fail(err)
	}
	if a.meta.Thumbnail {
		if a.thumbnailPart, err = a.pkg.AddPart(pml.ThumbnailPart, nil); err != nil {
			return a.fail(err)
		}
	}

	a.logger.Debug("structural parts initialized (%d parts)", len(a.pkg.Parts()))
	return nil
}

// appendSlide adds one slide. An image the media store rejects is dropped
// and reported through the second return value; the slide is kept.
func (a *assembly) appendSlide(unit ContentUnit, img *fetch.Image) (*pml.SlideRecord, bool, error) {
	if err := a.advance(stateAppending, stateInitialized, stateAppending); err != nil {
		return nil, false, err
	}
	ordinal := len(a.slides) + 1
	log := a.logger.WithField("slide", ordinal)

	var ref *media.Ref
	dropped := false
	if img != nil {
		var err error
		ref, err = a.store.Add(img.Data, img.FormatHint())
		if err != nil {
			log.Warn("image %s dropped: %v", img.Locator, err)
			ref, dropped = nil, true
		}
	}
	if ref != nil {
		if err := a.addMedia(ref); err != nil {
			return nil, false, a.fail(err)
		}
	}

	partName := pml.SlidePartName(ordinal)
	scope, err := a.pkg.Rels.CreateScope(partName)
	if err != nil {
		return nil, false, a.fail(err)
	}
	rec, err := a.builder.Build(scope, pml.SlideInput{
		Ordinal:   ordinal,
		ID:        a.nextID,
		Title:     unit.Title,
		BodyLines: unit.BodyLines,
		Media:     ref,
	})
	if err != nil {
		return nil, false, a.fail(NewDocumentError("build", partName, err))
	}
	if _, err := a.pkg.AddPartWithType(rec.PartName, pml.ContentTypeSlide, rec.XML); err != nil {
		return nil, false, a.fail(err)
	}

	relID := a.presScope.Add(opc.RelSlide, strings.TrimPrefix(rec.PartName, "ppt/"))
	a.pres.Append(rec.ID, relID)
	a.slides = append(a.slides, rec)
	a.nextID++

	log.Debug("appended %s (id %d, %s)", rec.PartName, rec.ID, relID)
	return rec, dropped, nil
}

// addMedia stores a media part, registering its extension on first use.
func (a *assembly) addMedia(ref *media.Ref) error {
	if !a.pkg.Types.HasDefault(ref.Ext) {
		a.logger.WithField("ext", ref.Ext).Debug("registering media type %s", ref.ContentType)
	}
	if err := a.pkg.Types.RegisterDefault(ref.Ext, ref.ContentType); err != nil {
		return err
	}
	if got, _ := a.pkg.Types.Resolve(ref.PartName); got != ref.ContentType {
		return &opc.InvariantError{
			Rule:   ruleMediaExtension,
			Part:   ref.PartName,
			Detail: fmt.Sprintf("extension resolves to %q, image is %q", got, ref.ContentType),
		}
	}
	_, err := a.pkg.AddPart(ref.PartName, ref.Data)
	return err
}

// render fills the slide-dependent parts, then validates the package and
// renders every relationship scope and the manifest.
func (a *assembly) render() error {
	if err := a.advance(stateRendered, stateInitialized, stateAppending); err != nil {
		return err
	}

	titles := make([]string, len(a.slides))
	for i, s := range a.slides {
		titles[i] = s.Title
	}
	first := ""
	if len(titles) > 0 {
		first = titles[0]
	}

	var err error
	if a.presPart.Data, err = a.pres.Marshal(); err != nil {
		return a.fail(NewDocumentError("render", pml.PresentationPart, err))
	}
	if a.appPart.Data, err = pml.RenderAppProps(pml.AppProps{Style: a.style, Titles: titles}); err != nil {
		return a.fail(NewDocumentError("render", pml.AppPropsPart, err))
	}
	a.corePart.Data, err = pml.RenderCoreProps(pml.CoreProps{
		Title:      first,
		Creator:    a.meta.Creator,
		Identifier: a.meta.Identifier,
		Created:    a.meta.Created,
	})
	if err != nil {
		return a.fail(NewDocumentError("render", pml.CorePropsPart, err))
	}
	if a.thumbnailPart != nil {
		if a.thumbnailPart.Data, err = thumbnail.Render(first, a.style); err != nil {
			return a.fail(NewDocumentError("render", pml.ThumbnailPart, err))
		}
	}

	if err := a.pkg.Seal(); err != nil {
		return a.fail(invariantErrors(err))
	}
	return nil
}

// invariantErrors flattens validation violations into a MultiError so that
// every broken rule is reported.
func invariantErrors(err error) error {
	var v opc.Violations
	if !errors.As(err, &v) {
		return err
	}
	multi := NewMultiError()
	for _, inv := range v {
		multi.Add(inv)
	}
	return multi.Err()
}

// serialize writes the archive.
func (a *assembly) serialize(w io.Writer) (int64, error) {
	if err := a.advance(stateSerialized, stateRendered); err != nil {
		return 0, err
	}
	n, err := a.pkg.WriteTo(w)
	if err != nil {
		return n, a.fail(NewDocumentError("serialize", "", err))
	}
	return n, nil
}
