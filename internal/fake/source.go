package fake

import "github.com/YALOKGARua/PhotoUnikalizer/internal/model"

// Source hands out the fake record of every file in one run.
type Source struct {
	gen   *Generator
	spec  model.FakeSpec
	fixed *Record
}

// NewSource prepares the records of a run. Without PerFile the record is
// resolved here, before the first file, and shared by every file.
func (g *Generator) NewSource(spec model.FakeSpec) *Source {
	s := &Source{gen: g, spec: spec}
	if !spec.PerFile {
		rec := g.Generate(spec)
		s.fixed = &rec
	}
	return s
}

// Record returns the record for the file at fileIndex.
func (s *Source) Record(fileIndex int) Record {
	if s.fixed != nil {
		return *s.fixed
	}
	return s.gen.Generate(s.spec)
}
