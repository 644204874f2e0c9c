// Package service contains the viewer session logic on top of the gallery.
package service

import "github.com/joeblew999/geophoto/internal/gallery"

// TypeInfo describes one overlay.
type TypeInfo struct {
	Label   string `json:"label" doc:"Type label" example:"landscape"`
	Count   int    `json:"count" doc:"Number of images of this type" example:"12"`
	Visible bool   `json:"visible" doc:"Whether the overlay is toggled on"`
}

// ViewerState is everything a viewer renders from its session.
type ViewerState struct {
	Session  string                `json:"session" doc:"Session ID"`
	Layers   []TypeInfo            `json:"layers" doc:"Overlays in render order"`
	Lightbox gallery.LightboxState `json:"lightbox" doc:"Lightbox state"`
}

// CollectionStatus is the loader state as exposed over the API.
type CollectionStatus struct {
	Status  gallery.Status `json:"status" enum:"loading,ready,error" doc:"Load state"`
	Images  int            `json:"images" doc:"Number of loaded images"`
	Types   []string       `json:"types" doc:"Type labels in render order"`
	Message string         `json:"message,omitempty" doc:"User-facing error message"`
}
