// Package gallery holds the image collection, the visible layer set and the
// lightbox state that the map viewer synchronizes between them.
package gallery

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat" doc:"Latitude" example:"48.8584"`
	Lng float64 `json:"lng" doc:"Longitude" example:"2.2945"`
}

// Variants holds the resolved URL of each rendition of an image.
type Variants struct {
	Thumbnail string `json:"thumbnail" doc:"Thumbnail URL"`
	Small     string `json:"small" doc:"Small rendition URL (marker icon)"`
	Medium    string `json:"medium" doc:"Medium rendition URL"`
	Large     string `json:"large" doc:"Large rendition URL (popup and lightbox)"`
}

// Span is a run of text with inline formatting.
type Span struct {
	Text      string `json:"text"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
}

// Block is one rich-text paragraph.
type Block struct {
	Type     string `json:"type" example:"paragraph"`
	Children []Span `json:"children"`
}

// Image is a geotagged image record. Records are immutable once loaded.
type Image struct {
	ID           int         `json:"id" doc:"CMS record ID" example:"1"`
	DocumentID   string      `json:"documentId,omitempty" doc:"CMS document ID"`
	LocationName string      `json:"locationName" doc:"Place name" example:"Eiffel Tower"`
	Description  []Block     `json:"description" doc:"Rich-text description"`
	Coordinates  Coordinates `json:"coordinates" doc:"Where the image was taken"`
	Variants     Variants    `json:"variants" doc:"Image rendition URLs"`
	Type         string      `json:"type" doc:"Layer label" example:"landscape"`
}

// Key returns a stable identifier for the record.
func (i Image) Key() string {
	if i.DocumentID != "" {
		return i.DocumentID
	}
	return i.Variants.Large
}

// Slide is one entry of the lightbox slide sequence.
type Slide struct {
	Src   string `json:"src" doc:"Large image URL"`
	Title string `json:"title,omitempty" doc:"Location name"`
}

// TypeLabels returns the distinct Type values of images in first-appearance
// order.
func TypeLabels(images []Image) []string {
	seen := make(map[string]struct{}, len(images))
	labels := []string{}
	for _, img := range images {
		if _, ok := seen[img.Type]; ok {
			continue
		}
		seen[img.Type] = struct{}{}
		labels = append(labels, img.Type)
	}
	return labels
}
