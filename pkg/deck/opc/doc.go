// Package opc implements the subset of the Open Packaging Conventions that a
// generated presentation needs: a content-type registry, per-part
// relationship scopes, an in-memory part set with invariant checks, and a ZIP
// serializer and reader.
//
// A Package owns its parts until it is sealed. Sealing renders every
// relationship scope to its ".rels" part and the content-type manifest to
// "[Content_Types].xml"; after that the package can only be written.
//
//	pkg := opc.NewPackage()
//	pkg.AddPartWithType("ppt/presentation.xml", ctPresentation, presentationXML)
//	pkg.Root().Add(opc.RelOfficeDocument, "ppt/presentation.xml")
//	if err := pkg.Seal(); err != nil {
//	    return err
//	}
//	_, err := pkg.WriteTo(w)
//
// Part names never carry a leading slash; the slash required by the
// content-type manifest's Override elements is added on output.
package opc
