package transform

import "fmt"

type stage struct {
	name string
	t    Transformer
}

// Pipeline is an ordered, immutable sequence of stages. A built Pipeline may be
// shared by concurrent callers as long as each call brings its own record.
type Pipeline struct {
	stages []stage
}

// New builds a pipeline from already constructed transformers, in order.
func New(ts ...Transformer) *Pipeline {
	stages := make([]stage, len(ts))
	for i, t := range ts {
		stages[i] = stage{name: fmt.Sprintf("%T", t), t: t}
	}
	return &Pipeline{stages: stages}
}

// Build resolves names against reg and constructs one instance per name. The
// same name may appear more than once. The first unknown name aborts the build.
func Build(reg *Registry, names []string) (*Pipeline, error) {
	stages := make([]stage, 0, len(names))
	for _, name := range names {
		f, err := reg.Resolve(name)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage{name: name, t: f()})
	}
	if err := checkShapes(stages); err != nil {
		return nil, err
	}
	return &Pipeline{stages: stages}, nil
}

// checkShapes walks the declared shapes starting from a Record. Stages that do
// not declare a shape are assumed compatible and make the following shape
// unknown.
func checkShapes(stages []stage) error {
	cur := ShapeRecord
	for i, s := range stages {
		in, out := shapeOf(s.t)
		if in != ShapeAny && cur != ShapeAny && in != cur {
			return &IncompatibleStagesError{Index: i, Name: s.name, Want: in, Got: cur}
		}
		cur = out
	}
	return nil
}

// Len reports the number of stages.
func (p *Pipeline) Len() int { return len(p.stages) }

// Names returns the stage names in application order.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.name
	}
	return out
}

// Apply threads rec through every stage and returns the last stage's output
// as is. A failing stage stops the run; its error is returned wrapped in a
// *StageError.
func (p *Pipeline) Apply(ev Event, rec Record) (any, error) {
	var acc any = rec
	for i, s := range p.stages {
		out, err := s.t.Transform(ev, acc)
		if err != nil {
			return nil, &StageError{Index: i, Name: s.name, Err: err}
		}
		acc = out
	}
	return acc, nil
}
