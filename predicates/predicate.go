package predicates

import "github.com/alphabill-org/alphabill-blueprints/cbor"

/*
Predicate is an access rule. Tag selects the predicate engine, Code and
Params are interpreted by the engine.
*/
type Predicate struct {
	_      struct{} `cbor:",toarray"`
	Tag    uint64
	Code   []byte
	Params []byte
}

func (p Predicate) AsBytes() ([]byte, error) {
	return cbor.Marshal(p)
}

func FromBytes(buf []byte) (*Predicate, error) {
	p := &Predicate{}
	if err := cbor.Unmarshal(buf, p); err != nil {
		return nil, err
	}
	return p, nil
}
