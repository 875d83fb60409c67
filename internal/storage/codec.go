package storage

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/pscheid92/scopeconf/internal/domain"
)

// snapshotVersion is bumped whenever the encoded layout changes; older entries are treated as a miss.
const snapshotVersion = 1

type encodedSnapshot struct {
	Version int                `cbor:"1,keyasint"`
	Values  domain.ResolvedMap `cbor:"2,keyasint"`
}

// codec serialises the resolved map. CBOR keeps int64, float64, string and null apart,
// so a snapshot read from the shared cache has the same types as a fresh rebuild.
type codec struct {
	em cbor.EncMode
	dm cbor.DecMode
}

func newCodec() (*codec, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	dm, err := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
		IntDec:    cbor.IntDecConvertSignedOrFail,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR decoder: %w", err)
	}

	return &codec{em: em, dm: dm}, nil
}

func (c *codec) encode(values domain.ResolvedMap) ([]byte, error) {
	data, err := c.em.Marshal(encodedSnapshot{Version: snapshotVersion, Values: values})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

func (c *codec) decode(data []byte) (domain.ResolvedMap, error) {
	var snap encodedSnapshot
	if err := c.dm.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snap.Version, snapshotVersion)
	}
	if snap.Values == nil {
		snap.Values = domain.ResolvedMap{}
	}
	return snap.Values, nil
}
