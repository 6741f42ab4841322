// Package blueprint loads a hierarchical blueprint document tree and
// compiles it into the canonical graph consumed by input normalization
// and producer-graph projection.
package blueprint

// Meta carries the blueprint's identity.
type Meta struct {
	ID          string `toml:"id" yaml:"id" json:"id"`
	Name        string `toml:"name" yaml:"name" json:"name"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
	Version     string `toml:"version,omitempty" yaml:"version,omitempty" json:"version,omitempty"`
}

// InputDecl declares one user-editable input.
type InputDecl struct {
	Name         string `toml:"name" yaml:"name" json:"name"`
	Type         string `toml:"type" yaml:"type" json:"type,omitempty"`
	Required     bool   `toml:"required,omitempty" yaml:"required,omitempty" json:"required,omitempty"`
	DefaultValue any    `toml:"defaultValue,omitempty" yaml:"defaultValue,omitempty" json:"defaultValue,omitempty"`
	Description  string `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
	FanIn        bool   `toml:"fanIn,omitempty" yaml:"fanIn,omitempty" json:"fanIn,omitempty"`
}

// ArtefactDecl declares one producer output.
type ArtefactDecl struct {
	Name        string `toml:"name" yaml:"name" json:"name"`
	Type        string `toml:"type" yaml:"type" json:"type,omitempty"`
	Cardinality string `toml:"cardinality,omitempty" yaml:"cardinality,omitempty" json:"cardinality,omitempty"`
	Required    bool   `toml:"required,omitempty" yaml:"required,omitempty" json:"required,omitempty"`
	CountInput  string `toml:"countInput,omitempty" yaml:"countInput,omitempty" json:"countInput,omitempty"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
}

// ProducerVariant is one named provider/model pairing a producer may
// resolve to.
type ProducerVariant struct {
	Name     string `toml:"name" yaml:"name" json:"name"`
	Provider string `toml:"provider" yaml:"provider" json:"provider,omitempty"`
	Model    string `toml:"model" yaml:"model" json:"model,omitempty"`
}

// ProducerDecl declares one computation step.
type ProducerDecl struct {
	Name     string            `toml:"name" yaml:"name" json:"name"`
	Provider string            `toml:"provider" yaml:"provider" json:"provider,omitempty"`
	Model    string            `toml:"model" yaml:"model" json:"model,omitempty"`
	Config   map[string]any    `toml:"config,omitempty" yaml:"config,omitempty" json:"config,omitempty"`
	Models   []ProducerVariant `toml:"models,omitempty" yaml:"models,omitempty" json:"models,omitempty"`
}

// SubBlueprintDecl references a child blueprint document. Name may carry
// an array-style dimension suffix, e.g. "Segment[segment]", meaning the
// child repeats once per index of that dimension.
type SubBlueprintDecl struct {
	Name string `toml:"name" yaml:"name" json:"name"`
	Path string `toml:"path,omitempty" yaml:"path,omitempty" json:"path,omitempty"`
}

// EdgeDecl is one symbolic data-flow edge. From/To reference node names,
// optionally dotted into a sub-blueprint and/or suffixed with dimension
// symbols, e.g. "ScriptProducer.NarrationScript[segment]".
type EdgeDecl struct {
	From string `toml:"from" yaml:"from" json:"from"`
	To   string `toml:"to" yaml:"to" json:"to"`
	Note string `toml:"note,omitempty" yaml:"note,omitempty" json:"note,omitempty"`
}

// Document is one blueprint file's parsed content, encoding-agnostic.
type Document struct {
	Meta          Meta               `toml:"meta" yaml:"meta" json:"meta"`
	Inputs        []InputDecl        `toml:"inputs,omitempty" yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Artefacts     []ArtefactDecl     `toml:"artefacts,omitempty" yaml:"artefacts,omitempty" json:"artefacts,omitempty"`
	Producers     []ProducerDecl     `toml:"producers,omitempty" yaml:"producers,omitempty" json:"producers,omitempty"`
	SubBlueprints []SubBlueprintDecl `toml:"subBlueprints,omitempty" yaml:"subBlueprints,omitempty" json:"subBlueprints,omitempty"`
	Edges         []EdgeDecl         `toml:"edges,omitempty" yaml:"edges,omitempty" json:"edges,omitempty"`
}
