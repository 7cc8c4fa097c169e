package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"lcflow/internal/util"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Kind enumerates the known extraction schemas. The set is closed; new
// kinds go through Register.
type Kind string

const (
	KindDefault        Kind = "default"
	KindSimple         Kind = "simple"
	KindLetterOfCredit Kind = "letter_of_credit"
)

// Schema is a named, versioned extraction contract: a target record shape,
// an instruction block for the completion service, and a canonical JSON
// example used on the free-text fallback path.
type Schema interface {
	Kind() Kind
	// NewRecord returns a pointer to a fresh record of the target shape.
	NewRecord() any
	Instructions() string
	JSONExample() string
	// JSONSchemaDoc is the raw JSON Schema document, sent verbatim to
	// completion services that support a json_schema response format.
	JSONSchemaDoc() json.RawMessage
	// ValidateJSON checks a raw completion payload against the schema's
	// JSON Schema before it is decoded into the record shape.
	ValidateJSON(data []byte) error
}

var (
	mu       sync.RWMutex
	registry = map[Kind]Schema{}
	aliases  = map[string]Kind{
		"default":          KindDefault,
		"general":          KindDefault,
		"simple":           KindSimple,
		"lc":               KindLetterOfCredit,
		"letter_of_credit": KindLetterOfCredit,
		"lettercredit":     KindLetterOfCredit,
	}
)

func init() {
	Register(DefaultSchema{})
	Register(SimpleSchema{})
	Register(LetterOfCreditSchema{})
}

// Register adds a schema to the closed set. Registering an existing kind
// replaces it, which tests use to stub instructions.
func Register(s Schema) {
	mu.Lock()
	defer mu.Unlock()
	registry[s.Kind()] = s
	aliases[strings.ToLower(string(s.Kind()))] = s.Kind()
}

// Lookup resolves a schema by name or alias.
func Lookup(name string) (Schema, error) {
	mu.RLock()
	defer mu.RUnlock()
	kind, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	s, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("schema %q not registered", kind)
	}
	return s, nil
}

func validateAgainst(compiled *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", util.ErrMalformedCompletion, err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", util.ErrMalformedCompletion, err)
	}
	return nil
}
