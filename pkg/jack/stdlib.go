package jack

import (
	_ "embed"
	"encoding/json"
)

//go:embed stdlib.json
var content string

var StandardLibraryABI = map[string]Class{}

func init() {
	if err := json.Unmarshal([]byte(content), &StandardLibraryABI); err != nil {
		panic("jack: malformed embedded stdlib.json: " + err.Error())
	}
}
