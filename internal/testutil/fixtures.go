package testutil

import "testing"

// LaborsCatalog returns a catalog with projects, labors, prizes and
// monsters covering every attribute kind the query language supports.
func LaborsCatalog() string {
	return `project: labors
entities:
  project:
    identity: name
    attributes:
      name: identifier
      restricted: boolean
      labor: collection
  labor:
    identity: name
    attributes:
      name: identifier
      project: parent
      number: integer
      completed: boolean
      completed_at: date_time
      restricted: boolean
      notes:
        type: string
        restricted: true
      stats:
        type: matrix
        validation:
          type: array
          options: [strength, cunning, speed]
      contributions: match
      document: file
      images: file_collection
      prize: collection
      monster: child
  prize:
    identity: name
    attributes:
      name: identifier
      labor: parent
      worth: integer
      cursed: boolean
  monster:
    identity: name
    attributes:
      name: identifier
      labor: parent
      species: string
`
}

// LaborsSeed returns rows for LaborsCatalog.
//
// Nemean Lion and Lernean Hydra are the only labors with a prize worth more
// than 2. Ceryneian Hind is restricted, Golden Fleece sits under a
// restricted project and Cretan Bull has no project.
func LaborsSeed() []string {
	return []string{
		`INSERT INTO project (id, name, restricted) VALUES
			(1, 'The Twelve Labors', FALSE),
			(2, 'Argonauts', TRUE)`,
		`INSERT INTO labor (id, name, project_id, number, completed, completed_at, restricted, notes, stats, contributions, document, images) VALUES
			(1, 'Nemean Lion', 1, 1, TRUE, '2000-01-01T00:00:00Z', FALSE, 'strangled', '[9, 2, 4]', '{"type":"hero","value":"Heracles"}', '{"filename":"lion.txt"}', '[{"filename":"a.png"},{"filename":"b.png"}]'),
			(2, 'Lernean Hydra', 1, 2, TRUE, '2000-02-01T00:00:00Z', FALSE, NULL, '[7, 5, 3]', '{"type":"hero","value":"Iolaus"}', '{}', '[]'),
			(3, 'Augean Stables', 1, 5, FALSE, NULL, FALSE, NULL, NULL, NULL, NULL, NULL),
			(4, 'Ceryneian Hind', 1, 3, FALSE, NULL, TRUE, NULL, NULL, NULL, NULL, NULL),
			(5, 'Erymanthian Boar', 1, 4, FALSE, NULL, NULL, NULL, NULL, NULL, NULL, NULL),
			(6, 'Golden Fleece', 2, 8, TRUE, NULL, FALSE, NULL, NULL, NULL, NULL, NULL),
			(7, 'Cretan Bull', NULL, 7, FALSE, NULL, FALSE, NULL, NULL, NULL, NULL, NULL)`,
		`INSERT INTO prize (id, name, labor_id, worth, cursed) VALUES
			(1, 'Lion pelt', 1, 5, FALSE),
			(2, 'Hydra teeth', 2, 3, TRUE),
			(3, 'Hydra venom', 2, 1, TRUE),
			(4, 'Dung', 3, 1, FALSE),
			(5, 'Antlers', 4, 2, FALSE),
			(6, 'Fleece', 6, 2, FALSE)`,
		`INSERT INTO monster (id, name, labor_id, species) VALUES
			(1, 'Nemean lion', 1, 'lion'),
			(2, 'Hydra', 2, 'serpent')`,
	}
}

// NewLaborsProject builds a project from LaborsCatalog and LaborsSeed.
func NewLaborsProject(t *testing.T) *TestProject {
	t.Helper()
	return NewTestProject(t).WithSeed(LaborsSeed()...).Build()
}
