package cms

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/joeblew999/geophoto/internal/gallery"
)

// envelope is the collection response: { "data": [...] }.
type envelope struct {
	Data *[]record `json:"data"`
}

// record accepts both the nested v4 shape ({id, attributes:{...}}) and the
// flattened v5 shape ({id, documentId, ...}).
type record struct {
	ID         int     `json:"id"`
	DocumentID string  `json:"documentId"`
	Attributes *fields `json:"attributes"`
	fields
}

type fields struct {
	LocationName string          `json:"locationName"`
	Description  []gallery.Block `json:"description"`
	Location     *location       `json:"location"`
	Image        media           `json:"image"`
	Type         string          `json:"type"`
}

type location struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type format struct {
	URL string `json:"url"`
}

type mediaFields struct {
	URL     string            `json:"url"`
	Formats map[string]format `json:"formats"`
}

// media is an upload relation, either inline or wrapped as
// { "data": { "attributes": {...} } }.
type media mediaFields

func (m *media) UnmarshalJSON(b []byte) error {
	var probe struct {
		URL     string            `json:"url"`
		Formats map[string]format `json:"formats"`
		Data    *struct {
			Attributes mediaFields `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	if probe.Data != nil {
		*m = media(probe.Data.Attributes)
		return nil
	}
	m.URL = probe.URL
	m.Formats = probe.Formats
	return nil
}

// variant returns the named format, or the original upload when the CMS did
// not generate that size.
func (m media) variant(name string) string {
	if f, ok := m.Formats[name]; ok && f.URL != "" {
		return f.URL
	}
	return m.URL
}

func (r record) image(base *url.URL) (gallery.Image, error) {
	f := r.fields
	if r.Attributes != nil {
		f = *r.Attributes
	}

	if f.Location == nil || f.Location.Lat == nil || f.Location.Lng == nil {
		return gallery.Image{}, fmt.Errorf("%w: record %d has no location", ErrPayload, r.ID)
	}
	if f.Image.variant("large") == "" {
		return gallery.Image{}, fmt.Errorf("%w: record %d has no image", ErrPayload, r.ID)
	}

	var v gallery.Variants
	for _, p := range []struct {
		name string
		dst  *string
	}{
		{"thumbnail", &v.Thumbnail},
		{"small", &v.Small},
		{"medium", &v.Medium},
		{"large", &v.Large},
	} {
		u, err := resolve(base, f.Image.variant(p.name))
		if err != nil {
			return gallery.Image{}, fmt.Errorf("%w: record %d %s url: %v", ErrPayload, r.ID, p.name, err)
		}
		*p.dst = u
	}

	desc := f.Description
	if desc == nil {
		desc = []gallery.Block{}
	}

	return gallery.Image{
		ID:           r.ID,
		DocumentID:   r.DocumentID,
		LocationName: f.LocationName,
		Description:  desc,
		Coordinates:  gallery.Coordinates{Lat: *f.Location.Lat, Lng: *f.Location.Lng},
		Variants:     v,
		Type:         f.Type,
	}, nil
}

// resolve joins an asset path onto the API base, keeping any base path.
// Absolute and scheme-relative URLs are kept.
func resolve(base *url.URL, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || u.Host != "" {
		return base.ResolveReference(u).String(), nil
	}
	joined := base.JoinPath(u.EscapedPath())
	joined.RawQuery = u.RawQuery
	joined.Fragment = u.Fragment
	return joined.String(), nil
}
