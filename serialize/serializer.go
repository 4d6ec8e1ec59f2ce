package serialize

import (
	"math"
	"strings"
)

// Params carries the keyword parameters for one serialization. A nil value
// is treated the same as an absent key.
type Params map[string]any

// paramSpec describes one parameter of a command spec. A nil def marks the
// parameter required; an empty-string def marks it optional but uncounted
// for scoring; any other def is a counted default.
type paramSpec struct {
	name      string
	def       any
	dependsOn []*paramSpec
}

func (p *paramSpec) hasDependencies(available map[*paramSpec]any) bool {
	for _, dep := range p.dependsOn {
		if _, ok := available[dep]; !ok {
			return false
		}
	}
	return true
}

// CommandSpec is one registered template for a command, with its parameter
// metadata. Multiple specs may share a command name; Serialize disambiguates
// by scoring.
type CommandSpec struct {
	command  string
	params   []*paramSpec
	template *Template
}

// Command returns the normalized command name this spec belongs to.
func (s *CommandSpec) Command() string { return s.command }

// Template returns the spec's template.
func (s *CommandSpec) Template() *Template { return s.template }

// String renders the spec for error messages, listing the template with its
// required and defaulted parameter names.
func (s *CommandSpec) String() string {
	var req, def []string
	for _, p := range s.params {
		if p.def == nil {
			req = append(req, p.name)
		} else if p.def != "" {
			def = append(def, p.name)
		}
	}
	return "CommandSpec(" + s.template.original + ", req=(" + strings.Join(req, ", ") + "), def=(" + strings.Join(def, ", ") + "))"
}

// score returns -1 when params are missing a required parameter or a
// declared dependency, otherwise the count of parameters present via params
// or a counted default whose dependencies are satisfied.
func (s *CommandSpec) score(params Params) int {
	available := make(map[*paramSpec]any, len(s.params))
	for _, p := range s.params {
		value, present := params[p.name]
		if value == nil {
			present = false
		}
		switch {
		case !present && p.def == nil:
			return -1
		case present:
			available[p] = value
		case p.def != "":
			available[p] = p.def
		}
	}

	total := 0
	for _, p := range s.params {
		if _, ok := available[p]; !ok {
			continue
		}
		if !p.hasDependencies(available) {
			return -1
		}
		total++
	}
	return total
}

// pack fills the template: params override defaults, and a parameter with
// neither becomes the empty string.
func (s *CommandSpec) pack(params Params) (string, error) {
	filtered := make(map[string]any, len(s.params))
	for _, p := range s.params {
		value := params[p.name]
		if value == nil {
			value = p.def
		}
		if value == nil {
			value = ""
		}
		filtered[p.name] = value
	}
	return s.template.Format(filtered)
}

// Options holds configuration overrides passed to NewSerializer().
type Options struct {
	// Formatters is the formatter table templates are parsed against.
	Formatters map[string]Formatter
}

// Serializer stores command specs in registration order and picks the best
// matching one for each Serialize call. There is deliberately no package
// level default instance: independent connections and tests should not share
// registration state, so construct one explicitly and pass it by reference.
type Serializer struct {
	formatters map[string]Formatter
	commands   map[string][]*CommandSpec
}

// NewSerializer constructs a Serializer with optional overrides.
func NewSerializer(optFns ...func(o *Options)) *Serializer {
	opts := Options{Formatters: GlobalFormatters}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Serializer{
		formatters: opts.Formatters,
		commands:   make(map[string][]*CommandSpec),
	}
}

// RegisterOptions refines one Register call.
type RegisterOptions struct {
	// Defaults maps parameter names to the value used when the caller omits
	// them. An empty-string default makes a parameter optional without
	// counting towards spec scoring.
	Defaults map[string]any
	// Dependencies maps a parameter to the parameter whose presence it
	// requires. Resolution is iterative and performs no cycle detection;
	// callers must not register circular dependencies.
	Dependencies map[string]string
}

// WithDefaults sets default values for parameters.
func WithDefaults(defaults map[string]any) func(o *RegisterOptions) {
	return func(o *RegisterOptions) { o.Defaults = defaults }
}

// WithDependencies declares parameter presence dependencies.
func WithDependencies(deps map[string]string) func(o *RegisterOptions) {
	return func(o *RegisterOptions) { o.Dependencies = deps }
}

// Register parses a template and stores it under the normalized command
// name, after any specs already registered for that command. Command and
// template placeholder names are normalized identically on Register and
// Serialize.
func (s *Serializer) Register(command, template string, optFns ...func(o *RegisterOptions)) (*CommandSpec, error) {
	opts := RegisterOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	name := normalizeCommand(command)
	tpl, err := ParseTemplateWith(template, s.formatters)
	if err != nil {
		return nil, err
	}

	required := make(map[string]bool)
	known := make(map[string]bool)
	for _, p := range tpl.Required() {
		required[p] = true
		known[p] = true
	}
	for _, p := range tpl.Optional() {
		known[p] = true
	}
	// A defaulted parameter is never required.
	for p := range opts.Defaults {
		if !known[p] {
			return nil, &UnknownParamError{Command: name, Param: p, Context: "default"}
		}
		delete(required, p)
	}
	for from, to := range opts.Dependencies {
		if !known[from] {
			return nil, &UnknownParamError{Command: name, Param: from, Context: "dependency"}
		}
		if !known[to] {
			return nil, &UnknownParamError{Command: name, Param: to, Context: "dependency"}
		}
	}

	// Build paramSpecs iteratively so dependency targets exist before their
	// dependents. No cycle detection: a dependency cycle loops forever.
	params := make(map[string]*paramSpec, len(known))
	order := make([]*paramSpec, 0, len(known))
	queue := make([]string, 0, len(known))
	for _, p := range tpl.Required() {
		queue = append(queue, p)
	}
	for _, p := range tpl.Optional() {
		queue = append(queue, p)
	}
	for len(queue) > 0 {
		pname := queue[0]
		queue = queue[1:]

		var dependsOn []*paramSpec
		if target := opts.Dependencies[pname]; target != "" {
			dep, ok := params[target]
			if !ok {
				queue = append(queue, pname)
				continue
			}
			dependsOn = []*paramSpec{dep}
		}

		var def any
		if !required[pname] {
			def = ""
			if v, ok := opts.Defaults[pname]; ok && v != nil {
				def = v
			}
		}

		p := &paramSpec{name: pname, def: def, dependsOn: dependsOn}
		params[pname] = p
		order = append(order, p)
	}

	spec := &CommandSpec{command: name, params: order, template: tpl}
	s.commands[name] = append(s.commands[name], spec)
	return spec, nil
}

// Serialize picks the highest scoring spec registered for the command and
// fills its template from params. Ties keep the earliest registration. When
// every spec is disqualified a MissingArgumentsError names the closest
// candidate.
func (s *Serializer) Serialize(command string, params Params) (string, error) {
	name := normalizeCommand(command)
	specs, ok := s.commands[name]
	if !ok {
		return "", &UnknownCommandError{Command: name}
	}

	var best *CommandSpec
	highest := math.MinInt
	for _, candidate := range specs {
		// On tie, first registered wins.
		if score := candidate.score(params); score > highest {
			highest = score
			best = candidate
		}
	}
	if highest < 0 {
		return "", &MissingArgumentsError{Command: name, Closest: best}
	}

	line, err := best.pack(params)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Specs returns the specs registered for a command, in registration order.
func (s *Serializer) Specs(command string) []*CommandSpec {
	return s.commands[normalizeCommand(command)]
}

func normalizeCommand(command string) string {
	return strings.ToUpper(strings.TrimSpace(command))
}
