// Package pml renders the PresentationML and DrawingML parts of a deck:
// slides, the presentation manifest, the single slide master and layout,
// the theme, the small property parts and the document properties.
//
// Every renderer is a pure function of its inputs. Slide rendering also
// takes the slide's relationship scope, because embedding a picture means
// allocating an image relationship and referencing its id from the XML.
//
// Basic usage:
//
//	b := pml.NewBuilder(pml.Classic)
//	scope, _ := pkg.Rels.CreateScope(pml.SlidePartName(1))
//	rec, err := b.Build(scope, pml.SlideInput{
//		Ordinal:   1,
//		ID:        pml.MinSlideID,
//		Title:     "Tokyo",
//		BodyLines: []string{"Population: 14M"},
//	})
package pml
