// Package deck assembles PowerPoint (.pptx) presentations from structured
// content.
//
// Each content unit becomes one slide carrying a title, a bulleted body and
// an optional picture. The package takes care of everything a presentation
// application expects around those slides: the slide master and layout, the
// theme, the relationship parts, the content-type manifest and the document
// properties.
//
// # Quick Start
//
// The simplest way to use go-deck is through the package-level function:
//
//	units := []deck.ContentUnit{
//	    {
//	        Title:          "Tokyo",
//	        BodyLines:      []string{"Population: 14M", "Capital of Japan"},
//	        ImageReference: "https://example.com/tokyo.jpg",
//	    },
//	}
//
//	result, err := deck.Generate(ctx, units, deck.Options{Style: "widescreen"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.FileName, result.Data, 0644)
//
// # Images
//
// Image references are resolved by a fetch.Fetcher before assembly, several
// at a time. http(s) and base64 data URIs are always accepted. Local files
// below DECK_MEDIA_ROOT and s3://bucket/key objects are accepted when
// configured. An image that cannot be fetched or embedded never fails the
// presentation: the slide keeps its text and the slide number is listed in
// Result.MissingMedia.
//
// # Configuration
//
// Configuration is read from DECK_* environment variables (see Config) or
// passed to New directly:
//
//	engine, err := deck.New(ctx, &deck.Config{...}, deck.WithLogger(logger))
//
// # Errors
//
// Malformed input is reported as a *ValidationError. Internal defects are
// reported as opc invariant or conflict errors, wrapped in a *ContextError
// naming the assembly stage. Use IsValidationError and IsInvariantError to
// tell them apart.
package deck
