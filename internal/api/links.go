package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/collection>; rel="collection"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/collection>; rel="collection"`,
	},
	"/api/v1/collection": {
		`</api/v1/images>; rel="images"`,
		`</api/v1/types>; rel="types"`,
		`</api/v1/markers>; rel="markers"`,
	},
	"/api/v1/images": {
		`</api/v1/types>; rel="types"`,
		`</api/v1/slides>; rel="slides"`,
	},
	"/api/v1/types": {
		`</api/v1/images>; rel="images"`,
		`</api/v1/markers>; rel="markers"`,
	},
	"/api/v1/markers": {
		`</api/v1/clusters>; rel="clusters"`,
		`</api/v1/images>; rel="images"`,
	},
	"/api/v1/clusters": {
		`</api/v1/markers>; rel="markers"`,
		`</api/v1/clusters/geojson>; rel="alternate"`,
	},
	"/api/v1/tiles/{z}/{x}/{y}": {
		`</api/v1/markers>; rel="markers"`,
	},
	"/api/v1/slides": {
		`</api/v1/images>; rel="images"`,
	},
	"/api/v1/tables": {
		`</api/v1/query>; rel="query"`,
	},
	"/api/v1/viewer/{session}/state": {
		`</api/v1/viewer/map>; rel="viewer"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
