package opc

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_AddIsMonotonicPerScope(t *testing.T) {
	g := NewGraph()
	pres, err := g.CreateScope("ppt/presentation.xml")
	require.NoError(t, err)
	slide, err := g.CreateScope("ppt/slides/slide1.xml")
	require.NoError(t, err)

	assert.Equal(t, "rId1", pres.Add(RelSlideMaster, "slideMasters/slideMaster1.xml"))
	assert.Equal(t, "rId1", slide.Add(RelSlideLayout, "../slideLayouts/slideLayout1.xml"))
	assert.Equal(t, "rId2", pres.Add(RelSlide, "slides/slide1.xml"))
	assert.Equal(t, "rId2", slide.Add(RelImage, "../media/image1.png"))
	assert.Equal(t, "rId3", pres.Add(RelSlide, "slides/slide2.xml"))

	rels := pres.Relationships()
	require.Len(t, rels, 3)
	assert.Equal(t, RelSlideMaster, rels[0].Type)
	assert.Equal(t, "slides/slide2.xml", rels[2].Target)

	got, ok := slide.Lookup("rId2")
	require.True(t, ok)
	assert.Equal(t, "../media/image1.png", got.Target)
}

func TestGraph_CreateScopeTwice(t *testing.T) {
	g := NewGraph()
	_, err := g.CreateScope("ppt/presentation.xml")
	require.NoError(t, err)

	_, err = g.CreateScope("/ppt/presentation.xml")
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict), "want ConflictError, got %v", err)
}

func TestGraph_ConcurrentScopes(t *testing.T) {
	g := NewGraph()

	var wg sync.WaitGroup
	for i := 1; i <= 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := g.CreateScope(fmt.Sprintf("ppt/slides/slide%d.xml", i))
			if err != nil {
				t.Error(err)
				return
			}
			for j := 0; j < 10; j++ {
				s.Add(RelImage, fmt.Sprintf("../media/image%d.png", j))
			}
		}(i)
	}
	wg.Wait()

	scopes := g.Scopes()
	require.Len(t, scopes, 16)
	for _, s := range scopes {
		rels := s.Relationships()
		require.Len(t, rels, 10)
		assert.Equal(t, "rId10", rels[9].ID, "scope %s", s.Owner())
	}
}

func TestGraph_Render(t *testing.T) {
	g := NewGraph()
	s, err := g.CreateScope("ppt/slides/slide1.xml")
	require.NoError(t, err)
	s.Add(RelSlideLayout, "../slideLayouts/slideLayout1.xml")
	s.Add(RelImage, "../media/image1.png")

	data, err := g.Render(s)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, XMLHeader))
	assert.Contains(t, text, `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	assert.Contains(t, text, `<Relationship Id="rId2" Type="`+RelImage+`" Target="../media/image1.png"></Relationship>`)

	rels, err := ParseRelationships(data)
	require.NoError(t, err)
	assert.Equal(t, s.Relationships(), rels)

	other := NewGraph()
	_, err = other.Render(s)
	assert.Error(t, err, "rendering a foreign scope must fail")
}

func TestRelsPartName(t *testing.T) {
	tests := []struct {
		owner string
		want  string
	}{
		{owner: "", want: "_rels/.rels"},
		{owner: "ppt/presentation.xml", want: "ppt/_rels/presentation.xml.rels"},
		{owner: "/ppt/slides/slide3.xml", want: "ppt/slides/_rels/slide3.xml.rels"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := RelsPartName(tt.owner)
			assert.Equal(t, tt.want, got)

			owner, ok := OwnerOfRelsPart(got)
			require.True(t, ok)
			assert.Equal(t, strings.TrimPrefix(tt.owner, "/"), owner)
		})
	}

	_, ok := OwnerOfRelsPart("ppt/slides/slide1.xml")
	assert.False(t, ok)
	_, ok = OwnerOfRelsPart("ppt/slide1.xml.rels")
	assert.False(t, ok)
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		owner, target, want string
	}{
		{"", "ppt/presentation.xml", "ppt/presentation.xml"},
		{"ppt/presentation.xml", "slides/slide1.xml", "ppt/slides/slide1.xml"},
		{"ppt/slides/slide1.xml", "../media/image1.png", "ppt/media/image1.png"},
		{"ppt/slides/slide1.xml", "/ppt/media/image1.png", "ppt/media/image1.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveTarget(tt.owner, tt.target), "%s -> %s", tt.owner, tt.target)
	}
}
