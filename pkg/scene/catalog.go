package scene

import (
	"sort"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/core"
)

// SceneInfo describes a built-in scene
type SceneInfo struct {
	ID          string `json:"id"`          // Lookup key
	DisplayName string `json:"displayName"` // Human readable name
	Description string `json:"description"` // Optional description
}

type builtin struct {
	info  SceneInfo
	build func() (*Scene, error)
}

var builtins = map[string]builtin{
	"simple-room": {
		info: SceneInfo{
			ID:          "simple-room",
			DisplayName: "Simple room",
			Description: "10×10×10 room with a hovering central block and a ceiling lamp",
		},
		build: NewSimpleRoom,
	},
	"floor": {
		info: SceneInfo{
			ID:          "floor",
			DisplayName: "Floor",
			Description: "Single floor quad lit from five units above",
		},
		build: NewFloor,
	},
	"cornell": {
		info: SceneInfo{
			ID:          "cornell",
			DisplayName: "Cornell room",
			Description: "Open-front Cornell-style room with mixed reflectivity and a profiled downlight",
		},
		build: NewCornellRoom,
	},
}

// List returns the built-in scenes sorted by display name
func List() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtins))
	for _, b := range builtins {
		scenes = append(scenes, b.info)
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes
}

// ByName builds the built-in scene with the given id
func ByName(id string) (*Scene, error) {
	b, ok := builtins[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, errors.New("unknown scene").
			WithType(core.ErrTypeInvalidConfig).
			WithTag("scene", id)
	}
	return b.build()
}
