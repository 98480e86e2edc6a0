package templates

import (
	"errors"
	"fmt"

	"github.com/alphabill-org/alphabill-blueprints/cbor"
	"github.com/alphabill-org/alphabill-blueprints/predicates"
	"github.com/alphabill-org/alphabill-blueprints/types"
)

const (
	AlwaysFalseID byte = iota
	AlwaysTrueID
	GlobalCallerID

	TemplateStartByte = 0x00
)

var (
	alwaysFalseBytes = []byte{0x83, 0x00, 0x41, 0x00, 0xf6}
	alwaysTrueBytes  = []byte{0x83, 0x00, 0x41, 0x01, 0xf6}
)

/*
Environment is the context the rule is evaluated in.
*/
type Environment interface {
	// GlobalCaller returns the address of the global component which
	// invoked the operation guarded by the rule, nil when the operation
	// was invoked directly by the transaction.
	GlobalCaller() types.Address
}

// AlwaysFalseBytes returns the "deny all" rule.
func AlwaysFalseBytes() []byte {
	return alwaysFalseBytes
}

// AlwaysTrueBytes returns the "allow all" rule.
func AlwaysTrueBytes() []byte {
	return alwaysTrueBytes
}

func NewGlobalCaller(component types.Address) predicates.Predicate {
	return predicates.Predicate{Tag: TemplateStartByte, Code: []byte{GlobalCallerID}, Params: component}
}

/*
NewGlobalCallerBytes returns rule which is satisfied only when the guarded
operation is called by the global component "component".
*/
func NewGlobalCallerBytes(component types.Address) []byte {
	pb, _ := cbor.Marshal(NewGlobalCaller(component))
	return pb
}

func IsAlwaysFalse(pb []byte) bool {
	p, err := predicates.FromBytes(pb)
	if err != nil {
		return false
	}
	return p.Tag == TemplateStartByte && len(p.Code) == 1 && p.Code[0] == AlwaysFalseID
}

/*
ExtractGlobalCaller returns the component address a "global caller" rule requires.
*/
func ExtractGlobalCaller(pb []byte) (types.Address, error) {
	p, err := predicates.FromBytes(pb)
	if err != nil {
		return nil, fmt.Errorf("decoding predicate: %w", err)
	}
	if err := verifyTemplate(p, GlobalCallerID); err != nil {
		return nil, err
	}
	return types.Address(p.Params), nil
}

/*
Evaluate returns true when the rule "pb" is satisfied in the environment "env".
*/
func Evaluate(pb []byte, env Environment) (bool, error) {
	p, err := predicates.FromBytes(pb)
	if err != nil {
		return false, fmt.Errorf("decoding predicate: %w", err)
	}
	if p.Tag != TemplateStartByte {
		return false, fmt.Errorf("unsupported predicate engine %d", p.Tag)
	}
	if len(p.Code) != 1 {
		return false, fmt.Errorf("expected predicate template code length to be 1, got %d", len(p.Code))
	}

	switch p.Code[0] {
	case AlwaysFalseID:
		return false, nil
	case AlwaysTrueID:
		return true, nil
	case GlobalCallerID:
		required := types.Address(p.Params)
		if err := required.Validate(types.EntityTypeGlobalComponent); err != nil {
			return false, fmt.Errorf("invalid global caller rule: %w", err)
		}
		if env == nil {
			return false, errors.New("evaluation environment is nil")
		}
		caller := env.GlobalCaller()
		return caller != nil && caller.Eq(required), nil
	default:
		return false, fmt.Errorf("unknown predicate template %X", p.Code[0])
	}
}

func verifyTemplate(p *predicates.Predicate, id byte) error {
	if p.Tag != TemplateStartByte {
		return fmt.Errorf("not a predicate template (tag %d)", p.Tag)
	}
	if len(p.Code) != 1 || p.Code[0] != id {
		return fmt.Errorf("not a template %X predicate (code %X)", id, p.Code)
	}
	return nil
}
