// Package loader parses suite definition files into model entities.
//
// A suite definition is a YAML document:
//
//	suite: optional display name        # defaults to the file name
//	queries:
//	  - id: q1
//	    sql: SELECT count(*) FROM accounts
//	    rows: 1                          # optional row-count expectation
//
// Query order in the file is execution order.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kadlec/drover/internal/model"
)

type suiteDoc struct {
	Suite   string     `yaml:"suite"`
	Queries []queryDoc `yaml:"queries"`
}

type queryDoc struct {
	ID   string `yaml:"id"`
	SQL  string `yaml:"sql"`
	Rows *int   `yaml:"rows"`
}

// YAML loads suite definitions from YAML files. The zero value is ready to
// use.
type YAML struct{}

// LoadSuite parses the definition at path. The suite id is derived from the
// file name unless the document names one explicitly. Query ids must be
// unique within the file.
func (YAML) LoadSuite(path string) (*model.Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load suite: %w", err)
	}
	var doc suiteDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("load suite %s: %w", path, err)
	}

	id := doc.Suite
	if id == "" {
		id = model.IDFromFilename(filepath.Base(path))
	}
	suite := &model.Suite{ID: id}

	seen := make(map[string]bool, len(doc.Queries))
	for i, q := range doc.Queries {
		if q.ID == "" {
			return nil, fmt.Errorf("load suite %s: query #%d has no id", path, i+1)
		}
		if q.SQL == "" {
			return nil, fmt.Errorf("load suite %s: query %q has no sql", path, q.ID)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("load suite %s: duplicate query id %q", path, q.ID)
		}
		seen[q.ID] = true

		rows := -1
		if q.Rows != nil {
			rows = *q.Rows
		}
		suite.AddQuery(&model.Query{ID: q.ID, SQL: q.SQL, ExpectedRows: rows})
	}
	return suite, nil
}
