package volio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/janelia-flyem/seedseg/dvid"
)

const seedSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["seeds"],
	"properties": {
		"seeds": {
			"type": "array",
			"items": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "array",
					"minItems": 3,
					"maxItems": 3,
					"items": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`

var seedSchema = jsonschema.MustCompileString("seeds.json", seedSchemaJSON)

type seedFile struct {
	Seeds [][]dvid.Point3d `json:"seeds"`
}

// ReadSeeds parses a JSON seed list of the form {"seeds": [[[x,y,z], ...], ...]}.  Each
// inner list is one seed.
func ReadSeeds(r io.Reader) ([][]dvid.Point3d, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("seed file is not valid JSON: %v", err)
	}
	if err := seedSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("seed file does not match schema: %v", err)
	}
	var sf seedFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	return sf.Seeds, nil
}

// ReadSeedsFile reads a JSON seed list from a file.
func ReadSeedsFile(path string) ([][]dvid.Point3d, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	seeds, err := ReadSeeds(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return seeds, nil
}

// WriteSeeds writes seeds in the format read by ReadSeeds.
func WriteSeeds(w io.Writer, seeds [][]dvid.Point3d) error {
	return json.NewEncoder(w).Encode(seedFile{Seeds: seeds})
}
