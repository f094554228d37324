package opc

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestNewReader(t *testing.T) {
	tests := []struct {
		name    string
		setup   func() *bytes.Buffer
		wantErr bool
	}{
		{
			name: "read valid package",
			setup: func() *bytes.Buffer {
				buf := new(bytes.Buffer)
				w := zip.NewWriter(buf)

				f, _ := w.Create(ContentTypesPartName)
				f.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`))

				f, _ = w.Create("_rels/.rels")
				f.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Relationships></Relationships>`))

				w.Close()
				return buf
			},
		},
		{
			name: "read empty zip file",
			setup: func() *bytes.Buffer {
				buf := new(bytes.Buffer)
				w := zip.NewWriter(buf)
				w.Close()
				return buf
			},
			wantErr: true,
		},
		{
			name: "read non-zip file",
			setup: func() *bytes.Buffer {
				buf := new(bytes.Buffer)
				buf.WriteString("not a zip file")
				return buf
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := tt.setup()
			_, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
			if (err != nil) != tt.wantErr {
				t.Errorf("NewReader() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReader_Relationships(t *testing.T) {
	p := newTestPackage(t)
	if err := p.Seal(); err != nil {
		t.Fatal(err)
	}
	data, err := p.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	rels, err := r.Relationships("doc/main.xml")
	if err != nil {
		t.Fatalf("Relationships() error = %v", err)
	}
	if len(rels) != 1 || rels[0].ID != "rId1" || rels[0].Type != RelImage {
		t.Errorf("unexpected relationships: %+v", rels)
	}

	// A part without a relationships file has none.
	rels, err = r.Relationships("doc/media/image1.png")
	if err != nil {
		t.Fatalf("Relationships() error = %v", err)
	}
	if len(rels) != 0 {
		t.Errorf("expected no relationships, got %+v", rels)
	}

	if _, err := r.Part("doc/missing.xml"); err == nil {
		t.Error("expected error for a missing part")
	}
}

func TestReader_ValidateDetectsBrokenArchive(t *testing.T) {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	write := func(name, content string) {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		f.Write([]byte(content))
	}
	write(ContentTypesPartName, `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
		`<Default Extension="rels" ContentType="`+ContentTypeRelationships+`"/>`+
		`<Default Extension="xml" ContentType="`+ContentTypeXML+`"/></Types>`)
	write("_rels/.rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
		`<Relationship Id="rId1" Type="`+RelOfficeDocument+`" Target="ppt/presentation.xml"/></Relationships>`)
	write("ppt/media/image1.png", "png")
	w.Close()

	path := filepath.Join(t.TempDir(), "broken.pptx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := ReaderFromFile(path)
	if err != nil {
		t.Fatalf("ReaderFromFile() error = %v", err)
	}

	err = r.Validate()
	if err == nil {
		t.Fatal("expected invariant violations")
	}
	violations, ok := err.(Violations)
	if !ok {
		t.Fatalf("expected Violations, got %T", err)
	}
	rules := map[string]bool{}
	for _, v := range violations {
		rules[v.Rule] = true
	}
	if !rules[RuleDanglingTarget] || !rules[RuleMissingContentType] {
		t.Errorf("expected dangling target and missing content type, got %v", violations)
	}
}
